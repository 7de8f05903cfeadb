// Package auth tracks the admins whose messages count as assistant
// knowledge and who may trigger ingestion commands.
package auth

type Admin struct {
	Username string `json:"username"`
	Note     string `json:"note,omitempty"`
}

type Repository interface {
	LoadAll() ([]Admin, error)
	Upsert(admin Admin) error
	Remove(username string) error
}

type Service struct {
	repo   Repository
	admins map[string]Admin
}

func NewWithRepo(repo Repository, initial []string) (*Service, error) {
	s := &Service{repo: repo, admins: make(map[string]Admin)}
	// preload from repo
	if repo != nil {
		admins, err := repo.LoadAll()
		if err == nil {
			for _, a := range admins {
				s.admins[a.Username] = a
			}
		}
	}
	// merge initial usernames from env
	for _, name := range initial {
		if name == "" {
			continue
		}
		if _, ok := s.admins[name]; !ok {
			s.admins[name] = Admin{Username: name}
		}
	}
	return s, nil
}

func (s *Service) IsAdmin(username string) bool {
	_, ok := s.admins[username]
	return ok
}

func (s *Service) Upsert(admin Admin) error {
	s.admins[admin.Username] = admin
	if s.repo != nil {
		return s.repo.Upsert(admin)
	}
	return nil
}

func (s *Service) Remove(username string) error {
	delete(s.admins, username)
	if s.repo != nil {
		return s.repo.Remove(username)
	}
	return nil
}

func (s *Service) List() []Admin {
	out := make([]Admin, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, a)
	}
	return out
}

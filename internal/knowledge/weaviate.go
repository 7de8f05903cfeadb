package knowledge

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const className = "ChatHistory"

type WeaviateConfig struct {
	Host         string
	Scheme       string
	APIKey       string
	OpenAIAPIKey string
	Timeout      time.Duration
}

// WeaviateStore implements Store on top of a Weaviate instance. Objects are
// vectorized server-side (text2vec-openai), queries run against explicit
// query vectors.
type WeaviateStore struct {
	client *weaviate.Client
}

func NewWeaviateStore(cfg WeaviateConfig) (*WeaviateStore, error) {
	wcfg := weaviate.Config{
		Host:   cfg.Host,
		Scheme: cfg.Scheme,
		Headers: map[string]string{
			"X-OpenAI-Api-Key": cfg.OpenAIAPIKey,
		},
		ConnectionClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init weaviate client: %w", err)
	}
	return &WeaviateStore{client: client}, nil
}

// EnsureSchema creates the ChatHistory class if it does not exist yet.
func (s *WeaviateStore) EnsureSchema(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: check schema: %v", ErrStoreQuery, err)
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:       className,
		Description: "Chat history between users and the assistant",
		Vectorizer:  "text2vec-openai",
		ModuleConfig: map[string]interface{}{
			"text2vec-openai": map[string]interface{}{
				"model": "text-embedding-3-small",
				"type":  "text",
			},
		},
		Properties: []*models.Property{
			{Name: "role", DataType: []string{"text"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "timestamp", DataType: []string{"date"}},
			{Name: "embedding", DataType: []string{"number[]"}},
			{Name: "message_id", DataType: []string{"text"}},
			{Name: "source_tag", DataType: []string{"text"}},
			{Name: "pair_id", DataType: []string{"text"}},
		},
	}
	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("%w: create schema: %v", ErrStoreQuery, err)
	}
	return nil
}

func (s *WeaviateStore) Save(ctx context.Context, rec Record) error {
	props := map[string]interface{}{
		"role":      rec.Role,
		"content":   rec.Content,
		"timestamp": FormatTimestamp(rec.Timestamp),
	}
	if rec.MessageID != "" {
		props["message_id"] = rec.MessageID
	}
	if rec.SourceTag != "" {
		props["source_tag"] = rec.SourceTag
	}
	if rec.PairID != "" {
		props["pair_id"] = rec.PairID
	}
	if len(rec.Embedding) > 0 {
		props["embedding"] = rec.Embedding
	}

	_, err := s.client.Data().Creator().
		WithClassName(className).
		WithProperties(props).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: create object: %v", ErrStoreQuery, err)
	}
	return nil
}

func (s *WeaviateStore) NearestByRole(ctx context.Context, role string, vector []float32, minCertainty float64) (Record, bool, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector).
		WithCertainty(float32(minCertainty))
	where := filters.Where().
		WithPath([]string{"role"}).
		WithOperator(filters.Equal).
		WithValueText(role)

	resp, err := s.client.GraphQL().Get().
		WithClassName(className).
		WithFields(recordFields()...).
		WithNearVector(nearVector).
		WithWhere(where).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: near-vector query: %v", ErrStoreQuery, err)
	}
	recs, err := parseRecords(resp)
	if err != nil {
		return Record{}, false, err
	}
	if len(recs) == 0 {
		return Record{}, false, nil
	}
	return recs[0], true, nil
}

func (s *WeaviateStore) ByPair(ctx context.Context, pairID, role string) (Record, bool, error) {
	where := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().WithPath([]string{"pair_id"}).WithOperator(filters.Equal).WithValueText(pairID),
			filters.Where().WithPath([]string{"role"}).WithOperator(filters.Equal).WithValueText(role),
		})

	resp, err := s.client.GraphQL().Get().
		WithClassName(className).
		WithFields(recordFields()...).
		WithWhere(where).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: pair query: %v", ErrStoreQuery, err)
	}
	recs, err := parseRecords(resp)
	if err != nil {
		return Record{}, false, err
	}
	if len(recs) == 0 {
		return Record{}, false, nil
	}
	return recs[0], true, nil
}

func (s *WeaviateStore) DeleteByContent(ctx context.Context, content string) (int64, error) {
	where := filters.Where().
		WithPath([]string{"content"}).
		WithOperator(filters.Equal).
		WithValueText(content)

	resp, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(className).
		WithWhere(where).
		WithOutput("minimal").
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: batch delete: %v", ErrStoreQuery, err)
	}
	if resp == nil || resp.Results == nil {
		return 0, nil
	}
	return resp.Results.Successful, nil
}

func (s *WeaviateStore) Count(ctx context.Context) (int64, error) {
	resp, err := s.client.GraphQL().Aggregate().
		WithClassName(className).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: aggregate query: %v", ErrStoreQuery, err)
	}
	if len(resp.Errors) > 0 {
		return 0, fmt.Errorf("%w: aggregate query: %s", ErrStoreQuery, resp.Errors[0].Message)
	}

	agg, ok := resp.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("%w: malformed aggregate response", ErrStoreQuery)
	}
	rows, ok := agg[className].([]interface{})
	if !ok || len(rows) == 0 {
		return 0, fmt.Errorf("%w: malformed aggregate response", ErrStoreQuery)
	}
	row, ok := rows[0].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("%w: malformed aggregate response", ErrStoreQuery)
	}
	meta, ok := row["meta"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("%w: malformed aggregate response", ErrStoreQuery)
	}
	count, ok := meta["count"].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: malformed aggregate response", ErrStoreQuery)
	}
	return int64(count), nil
}

func (s *WeaviateStore) ExportAll(ctx context.Context, limit int) ([]Record, error) {
	resp, err := s.client.GraphQL().Get().
		WithClassName(className).
		WithFields(exportFields()...).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: export query: %v", ErrStoreQuery, err)
	}
	return parseRecords(resp)
}

func recordFields() []graphql.Field {
	return []graphql.Field{
		{Name: "role"},
		{Name: "content"},
		{Name: "timestamp"},
		{Name: "message_id"},
		{Name: "source_tag"},
		{Name: "pair_id"},
	}
}

// exportFields adds the stored embedding so a dump loses nothing; lookup
// queries skip it to keep responses small.
func exportFields() []graphql.Field {
	return append(recordFields(), graphql.Field{Name: "embedding"})
}

func parseRecords(resp *models.GraphQLResponse) ([]Record, error) {
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%w: graphql: %s", ErrStoreQuery, resp.Errors[0].Message)
	}
	get, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: malformed response shape", ErrStoreQuery)
	}
	rows, ok := get[className].([]interface{})
	if !ok {
		// Absent class key means an empty result set.
		if get[className] == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: malformed response shape", ErrStoreQuery)
	}

	out := make([]Record, 0, len(rows))
	for _, raw := range rows {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: malformed record in response", ErrStoreQuery)
		}
		rec := Record{
			Role:      asString(obj["role"]),
			Content:   asString(obj["content"]),
			MessageID: asString(obj["message_id"]),
			SourceTag: asString(obj["source_tag"]),
			PairID:    asString(obj["pair_id"]),
		}
		if ts := asString(obj["timestamp"]); ts != "" {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				rec.Timestamp = t
			}
		}
		if raw, ok := obj["embedding"].([]interface{}); ok && len(raw) > 0 {
			vec := make([]float32, 0, len(raw))
			for _, v := range raw {
				if f, ok := v.(float64); ok {
					vec = append(vec, float32(f))
				}
			}
			rec.Embedding = vec
		}
		out = append(out, rec)
	}
	return out, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

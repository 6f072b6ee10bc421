package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/Skotchmaster/social_feed/internal/models"
)

const postsMapping = `{
  "mappings": {
    "properties": {
      "id":         {"type": "long"},
      "user_id":    {"type": "long"},
      "content":    {"type": "text"},
      "created_at": {"type": "date"}
    }
  }
}`

func NewClient(ctx context.Context, url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("es: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("info", res.StatusCode, res.Body)
	}
	return client, nil
}

// Index keeps a searchable copy of posts. The database stays the source of
// truth: search returns ids and callers load the rows themselves.
type Index struct {
	ES   *elasticsearch.Client
	Name string
}

type postDoc struct {
	ID        uint          `json:"id"`
	UserID    models.UserID `json:"user_id"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
}

func (ix *Index) EnsureIndex(ctx context.Context) error {
	res, err := ix.ES.Indices.Exists([]string{ix.Name}, ix.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es: index exists: status %d", res.StatusCode)
	}

	res, err = ix.ES.Indices.Create(ix.Name,
		ix.ES.Indices.Create.WithContext(ctx),
		ix.ES.Indices.Create.WithBody(strings.NewReader(postsMapping)),
	)
	if err != nil {
		return fmt.Errorf("es: create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res.StatusCode, res.Body)
	}
	return nil
}

func (ix *Index) IndexPost(ctx context.Context, p *models.Post) error {
	body, err := json.Marshal(postDoc{ID: p.ID, UserID: p.UserID, Content: p.Content, CreatedAt: p.CreatedAt})
	if err != nil {
		return err
	}

	res, err := ix.ES.Index(ix.Name, bytes.NewReader(body),
		ix.ES.Index.WithContext(ctx),
		ix.ES.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("es: index post: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index post", res.StatusCode, res.Body)
	}
	return nil
}

// DeletePost is idempotent: a missing document is not an error.
func (ix *Index) DeletePost(ctx context.Context, id uint) error {
	res, err := ix.ES.Delete(ix.Name, strconv.FormatUint(uint64(id), 10), ix.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: delete post: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete post", res.StatusCode, res.Body)
	}
	return nil
}

// SearchPosts returns the total number of hits and the ids of one page, best match first.
func (ix *Index) SearchPosts(ctx context.Context, query string, from, size int) (int64, []uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"match": map[string]any{
				"content": map[string]any{
					"query":     query,
					"fuzziness": "AUTO",
				},
			},
		},
		"sort":    []any{"_score", map[string]any{"created_at": "desc"}},
		"_source": []string{"id"},
		"from":    from,
		"size":    size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := ix.ES.Search(
		ix.ES.Search.WithContext(ctx),
		ix.ES.Search.WithIndex(ix.Name),
		ix.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res.StatusCode, res.Body)
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source struct {
					ID uint `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("es: decode search: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return r.Hits.Total.Value, ids, nil
}

func responseError(op string, status int, body io.Reader) error {
	msg, _ := io.ReadAll(io.LimitReader(body, 1024))
	return fmt.Errorf("es: %s: status %d: %s", op, status, bytes.TrimSpace(msg))
}

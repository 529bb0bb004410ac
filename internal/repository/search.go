package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"aula-backend/internal/domain"

	"github.com/elastic/go-elasticsearch/v8"
)

type ElasticOptions struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

type esCourseIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewElasticCourseIndex(opts ElasticOptions) (domain.CourseIndex, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: opts.Addresses,
		Username:  opts.Username,
		Password:  opts.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &esCourseIndex{es: es, index: opts.Index}, nil
}

type courseDoc struct {
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	Category    string `json:"categoria"`
	Level       string `json:"nivel"`
	Teacher     string `json:"profesor"`
	Active      bool   `json:"activo"`
}

func (i *esCourseIndex) Index(ctx context.Context, course *domain.Course) error {
	data, err := json.Marshal(courseDoc{
		Title:       course.Title,
		Description: course.Description,
		Category:    course.Category,
		Level:       string(course.Level),
		Teacher:     course.Teacher.Name,
		Active:      course.Active,
	})
	if err != nil {
		return err
	}
	res, err := i.es.Index(i.index, bytes.NewReader(data),
		i.es.Index.WithContext(ctx),
		i.es.Index.WithDocumentID(course.ID.Hex()),
		i.es.Index.WithRefresh("true"),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

func (i *esCourseIndex) Remove(ctx context.Context, id string) error {
	res, err := i.es.Delete(i.index, id, i.es.Delete.WithContext(ctx), i.es.Delete.WithRefresh("true"))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

func (i *esCourseIndex) Search(ctx context.Context, query string) ([]string, error) {
	var buf bytes.Buffer
	body := map[string]interface{}{
		"size": 50,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":     query,
						"fields":    []string{"titulo^3", "descripcion", "categoria^2", "profesor"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"activo": true},
				},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

type noopCourseIndex struct{}

// NewNoopCourseIndex is used when Elasticsearch is not configured.
func NewNoopCourseIndex() domain.CourseIndex { return noopCourseIndex{} }

func (noopCourseIndex) Index(context.Context, *domain.Course) error { return nil }
func (noopCourseIndex) Remove(context.Context, string) error        { return nil }
func (noopCourseIndex) Search(context.Context, string) ([]string, error) {
	return nil, domain.ErrIndexUnavailable
}

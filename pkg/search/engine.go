package search

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/blevesearch/bleve/v2"
)

var ErrClosed = errors.New("search engine closed")

type Engine interface {
	Index(ctx context.Context, doc Doc) error
	IndexBatch(ctx context.Context, docs []Doc) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, req SearchRequest) (SearchResult, error)
	GetAutoCompleteSuggestions(ctx context.Context, keyword string) ([]string, error)
	GetSearchSuggestions(ctx context.Context, keyword string) ([]string, error)
	Close() error
}

type bleveEngine struct {
	cfg           Config
	index         bleve.Index
	defaultFields []string
	mu            sync.RWMutex
	closed        bool
}

func New(cfg Config, m mapping.IndexMapping) (Engine, error) { // mapping 引自 bleve
	be := &bleveEngine{cfg: cfg, defaultFields: cfg.DefaultSearchFields}

	// 空路径表示纯内存索引, 测试与一次性环境用
	if cfg.IndexPath == "" {
		i, err := bleve.NewMemOnly(m)
		if err != nil {
			return nil, err
		}
		be.index = i
		return be, nil
	}

	var idx bleve.Index
	if _, err := os.Stat(cfg.IndexPath); err == nil {
		i, e := bleve.Open(cfg.IndexPath)
		if e != nil {
			return nil, e
		}
		idx = i
	} else if os.IsNotExist(err) {
		i, e := bleve.New(cfg.IndexPath, m)
		if e != nil {
			return nil, e
		}
		idx = i
	} else {
		return nil, err
	}
	be.index = idx
	return be, nil
}

func (e *bleveEngine) guard() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}
	return nil
}

func (e *bleveEngine) withDeadline(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}
	c, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	ch := make(chan error, 1)
	go func() { ch <- fn(c) }()
	select {
	case <-c.Done():
		return c.Err()
	case err := <-ch:
		return err
	}
}

func (e *bleveEngine) Index(ctx context.Context, doc Doc) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.withDeadline(ctx, e.cfg.QueryTimeout, func(ctx context.Context) error {
		data := make(map[string]any, len(doc.Fields)+1)
		for k, v := range doc.Fields {
			data[k] = v
		}
		if doc.Type != "" {
			data["type"] = doc.Type
		}
		return e.index.Index(doc.ID, data)
	})
}

func (e *bleveEngine) IndexBatch(ctx context.Context, docs []Doc) error {
	if err := e.guard(); err != nil {
		return err
	}
	bs := e.cfg.BatchSize
	if bs <= 0 {
		bs = 200
	}
	return e.withDeadline(ctx, 0, func(ctx context.Context) error {
		for i := 0; i < len(docs); i += bs {
			end := i + bs
			if end > len(docs) {
				end = len(docs)
			}
			b := e.index.NewBatch()
			for _, d := range docs[i:end] {
				data := make(map[string]any, len(d.Fields)+1)
				for k, v := range d.Fields {
					data[k] = v
				}
				if d.Type != "" {
					data["type"] = d.Type
				}
				if err := b.Index(d.ID, data); err != nil {
					return err
				}
			}
			if err := e.index.Batch(b); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *bleveEngine) Delete(ctx context.Context, id string) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.withDeadline(ctx, e.cfg.QueryTimeout, func(ctx context.Context) error {
		return e.index.Delete(id)
	})
}

func (e *bleveEngine) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	if err := e.guard(); err != nil {
		return SearchResult{}, err
	}

	q := buildQuery(req, e.defaultFields)
	sr := bleve.NewSearchRequest(q)

	// 分页
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}
	sr.Size = req.Size
	sr.From = req.From

	// 排序
	if len(req.SortBy) > 0 {
		sr.SortBy(req.SortBy)
	}

	// 字段
	if len(req.IncludeFields) == 0 {
		sr.Fields = []string{"*"}
	} else {
		sr.Fields = req.IncludeFields
	}

	// 高亮
	if req.Highlight {
		hl := bleve.NewHighlightWithStyle("html")
		if len(req.HighlightFields) > 0 {
			hl.Fields = req.HighlightFields
		}
		sr.Highlight = hl
	}

	// Facets
	if len(req.Facets) > 0 {
		sr.Facets = make(map[string]*bleve.FacetRequest, len(req.Facets))
		for _, f := range req.Facets {
			size := f.Size
			if size <= 0 {
				size = 10
			}
			sr.Facets[f.Name] = bleve.NewFacetRequest(f.Field, size)
		}
	}

	var res *bleve.SearchResult
	err := e.withDeadline(ctx, e.cfg.QueryTimeout, func(ctx context.Context) error {
		r, e2 := e.index.Search(sr)
		if e2 != nil {
			return e2
		}
		res = r
		return nil
	})
	if err != nil {
		return SearchResult{}, err
	}

	out := SearchResult{
		Total:  res.Total,
		Took:   res.Took,
		Hits:   make([]Hit, 0, len(res.Hits)),
		Facets: map[string]FacetResult{},
	}
	for _, h := range res.Hits {
		out.Hits = append(out.Hits, Hit{
			ID:        h.ID,
			Score:     h.Score,
			Fields:    h.Fields,
			Fragments: h.Fragments,
		})
	}
	// Facets
	if res.Facets != nil {
		for name, fr := range res.Facets {
			ft := FacetResult{Total: fr.Total}
			if fr.Terms != nil {
				for _, t := range fr.Terms.Terms() {
					ft.Terms = append(ft.Terms, FacetTerm{Term: t.Term, Count: t.Count})
				}
			}
			out.Facets[name] = ft
		}
	}
	return out, nil
}

func (e *bleveEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.index.Close()
}

// GetAutoCompleteSuggestions 前缀匹配实现自动补全
func (e *bleveEngine) GetAutoCompleteSuggestions(ctx context.Context, keyword string) ([]string, error) {
	query := bleve.NewPrefixQuery(keyword)
	return e.suggest(ctx, bleve.NewSearchRequest(query))
}

// GetSearchSuggestions 按相关度返回近似命中的文档
func (e *bleveEngine) GetSearchSuggestions(ctx context.Context, keyword string) ([]string, error) {
	query := bleve.NewMatchQuery(keyword)
	return e.suggest(ctx, bleve.NewSearchRequest(query))
}

func (e *bleveEngine) suggest(ctx context.Context, sr *bleve.SearchRequest) ([]string, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	sr.Size = 5

	var suggestions []string
	err := e.withDeadline(ctx, e.cfg.QueryTimeout, func(ctx context.Context) error {
		searchResult, err := e.index.Search(sr)
		if err != nil {
			return err
		}
		for _, hit := range searchResult.Hits {
			suggestions = append(suggestions, hit.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

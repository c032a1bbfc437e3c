package search

import "time"

type Config struct {
	IndexPath           string
	DefaultAnalyzer     string
	DefaultSearchFields []string
	OpenTimeout         time.Duration
	QueryTimeout        time.Duration
	BatchSize           int
}

// Doc 一条可索引的安全事件文档
type Doc struct {
	ID     string
	Type   string
	Fields map[string]any
}

// -------- 过滤器 --------
type NumericRangeFilter struct {
	Field   string
	GTE, GT *float64
	LTE, LT *float64
}

type TimeRangeFilter struct {
	Field   string
	From    *time.Time
	To      *time.Time
	IncFrom bool
	IncTo   bool
}

// -------- 查询子句 --------
type ClauseMatch struct { // 单字段 Match / 可带权重
	Field    string
	Query    string
	Boost    *float64
	Operator string // "and"/"or"，默认 or
}

type ClausePhrase struct {
	Field  string
	Phrase string
	Boost  *float64
}

type ClausePrefix struct {
	Field  string
	Prefix string
	Boost  *float64
}

type ClauseQueryString struct {
	Query  string   // 直接使用 QueryString 语法
	Fields []string // 如果不为空，会转换成 field:(q) OR ...
	Boost  *float64
}

// Facet 聚合
type FacetRequest struct {
	Name  string // 返回名
	Field string // 字段
	Size  int    // Top N
}

type SearchRequest struct {
	// 关键字
	Keyword      string
	SearchFields []string

	// 结构化 Term: 事件类型、参与者等枚举字段
	MustTerms    map[string][]string
	MustNotTerms map[string][]string
	ShouldTerms  map[string][]string

	// 数值/时间过滤: 事件时间窗
	NumericRanges []NumericRangeFilter
	TimeRanges    []TimeRangeFilter

	// 查询子句
	QueryString *ClauseQueryString
	Matches     []ClauseMatch
	Phrases     []ClausePhrase
	Prefixes    []ClausePrefix

	// 布尔控制
	MinShould int // 至少满足多少个 should

	// Facet 聚合
	Facets []FacetRequest

	// 排序与分页
	SortBy []string
	From   int
	Size   int

	// 字段返回与高亮
	IncludeFields   []string
	Highlight       bool
	HighlightFields []string
	FragmentSize    int
	MaxFragments    int
}

type Hit struct {
	ID        string
	Score     float64
	Fields    map[string]any
	Fragments map[string][]string
}

type FacetTerm struct {
	Term  string
	Count int
}

type FacetResult struct {
	Total int
	Terms []FacetTerm
}

type SearchResult struct {
	Total  uint64
	Took   time.Duration
	Hits   []Hit
	Facets map[string]FacetResult
}

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ajitpratap0/databuilder/pkg/graph"
)

const (
	JoinLabel      = "Join"
	WhereLabel     = "Where"
	ExecutionLabel = "Execution"

	QueryTableRelationType            = "QUERY_OF_TABLE"
	QueryTableReverseRelationType     = "HAS_QUERY"
	AuthorRelationType                = "AUTHOR"
	AuthorReverseRelationType         = "AUTHORED_BY"
	JoinTableRelationType             = "JOIN_OF_TABLE"
	JoinTableReverseRelationType      = "HAS_JOIN"
	QueryJoinRelationType             = "HAS_JOIN"
	QueryJoinReverseRelationType      = "JOIN_OF_QUERY"
	WhereTableRelationType            = "WHERE_OF_TABLE"
	WhereTableReverseRelationType     = "HAS_WHERE"
	QueryExecutionRelationType        = "HAS_EXECUTION"
	QueryExecutionReverseRelationType = "EXECUTION_OF"
)

// NormalizeSQL lower-cases sql, collapses whitespace and drops a trailing
// semicolon so equivalent statements hash alike.
func NormalizeSQL(sql string) string {
	s := strings.Join(strings.Fields(strings.ToLower(sql)), " ")
	return strings.TrimSpace(strings.TrimSuffix(s, ";"))
}

func hashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// QueryMetadata is a SQL statement run against one or more tables.
type QueryMetadata struct {
	SQL       string
	TableKeys []string
	UserEmail string

	producer
}

// NewQueryMetadata builds a query entity keyed by the hash of its
// normalized text.
func NewQueryMetadata(sql string, tableKeys []string, userEmail string) *QueryMetadata {
	q := &QueryMetadata{SQL: sql, TableKeys: tableKeys, UserEmail: userEmail}
	q.init(q.nodes, q.relations, nil)
	return q
}

// Key returns the sha256 hex digest of the normalized SQL.
func (q *QueryMetadata) Key() string {
	return hashText(NormalizeSQL(q.SQL))
}

func (q *QueryMetadata) nodes() []*graph.Node {
	return []*graph.Node{node(q.Key(), QueryLabel, graph.Attributes{
		"sql":      graph.String(q.SQL),
		"sql_hash": graph.String(q.Key()),
	})}
}

func (q *QueryMetadata) relations() []*graph.Relationship {
	var out []*graph.Relationship
	for _, t := range q.TableKeys {
		out = append(out, relation(QueryLabel, q.Key(), TableLabel, t, QueryTableRelationType, QueryTableReverseRelationType))
	}
	if q.UserEmail != "" {
		out = append(out, relation(UserLabel, UserKey(q.UserEmail), QueryLabel, q.Key(),
			AuthorRelationType, AuthorReverseRelationType))
	}
	return out
}

// QueryJoinMetadata is a join between two table columns seen in a query.
type QueryJoinMetadata struct {
	LeftTableKey  string
	LeftColumn    string
	RightTableKey string
	RightColumn   string
	JoinType      string
	Operator      string
	Query         *QueryMetadata

	producer
}

// NewQueryJoinMetadata builds a join entity.
func NewQueryJoinMetadata(leftTableKey, leftColumn, rightTableKey, rightColumn, joinType, operator string,
	query *QueryMetadata) *QueryJoinMetadata {
	j := &QueryJoinMetadata{
		LeftTableKey:  leftTableKey,
		LeftColumn:    leftColumn,
		RightTableKey: rightTableKey,
		RightColumn:   rightColumn,
		JoinType:      strings.ToLower(joinType),
		Operator:      operator,
		Query:         query,
	}
	j.init(j.nodes, j.relations, nil)
	return j
}

// Key formats {left_column_key}-{join_type}-{operator}-{right_column_key}.
func (j *QueryJoinMetadata) Key() string {
	return fmt.Sprintf("%s-%s-%s-%s", ColumnKey(j.LeftTableKey, j.LeftColumn), j.JoinType, j.Operator,
		ColumnKey(j.RightTableKey, j.RightColumn))
}

func (j *QueryJoinMetadata) nodes() []*graph.Node {
	return []*graph.Node{node(j.Key(), JoinLabel, graph.Attributes{
		"join_type": graph.String(j.JoinType),
		"operator":  graph.String(j.Operator),
		"join_sql":  graph.String(fmt.Sprintf("%s %s %s", j.LeftColumn, j.Operator, j.RightColumn)),
	})}
}

func (j *QueryJoinMetadata) relations() []*graph.Relationship {
	out := []*graph.Relationship{
		relation(JoinLabel, j.Key(), TableLabel, j.LeftTableKey, JoinTableRelationType, JoinTableReverseRelationType),
	}
	if j.RightTableKey != j.LeftTableKey {
		out = append(out, relation(JoinLabel, j.Key(), TableLabel, j.RightTableKey, JoinTableRelationType, JoinTableReverseRelationType))
	}
	if j.Query != nil {
		out = append(out, relation(QueryLabel, j.Query.Key(), JoinLabel, j.Key(), QueryJoinRelationType, QueryJoinReverseRelationType))
	}
	return out
}

// QueryWhereMetadata is a filter predicate seen in a query.
type QueryWhereMetadata struct {
	TableKeys   []string
	WhereClause string
	LeftArg     string
	RightArg    string
	Operator    string

	producer
}

// NewQueryWhereMetadata builds a where-clause entity.
func NewQueryWhereMetadata(tableKeys []string, whereClause, leftArg, rightArg, operator string) *QueryWhereMetadata {
	w := &QueryWhereMetadata{
		TableKeys:   tableKeys,
		WhereClause: whereClause,
		LeftArg:     leftArg,
		RightArg:    rightArg,
		Operator:    operator,
	}
	w.init(w.nodes, w.relations, nil)
	return w
}

// Key is the hash of the normalized where clause.
func (w *QueryWhereMetadata) Key() string {
	return "where:" + hashText(NormalizeSQL(w.WhereClause))
}

func (w *QueryWhereMetadata) nodes() []*graph.Node {
	return []*graph.Node{node(w.Key(), WhereLabel, graph.Attributes{
		"where_clause": graph.String(w.WhereClause),
		"left_arg":     graph.String(w.LeftArg),
		"right_arg":    graph.String(w.RightArg),
		"operator":     graph.String(w.Operator),
	})}
}

func (w *QueryWhereMetadata) relations() []*graph.Relationship {
	out := make([]*graph.Relationship, 0, len(w.TableKeys))
	for _, t := range w.TableKeys {
		out = append(out, relation(WhereLabel, w.Key(), TableLabel, t, WhereTableRelationType, WhereTableReverseRelationType))
	}
	return out
}

// QueryExecutionsMetadata counts executions of a query within a window.
type QueryExecutionsMetadata struct {
	Query          *QueryMetadata
	StartTime      int64
	WindowDuration string
	ExecutionCount int64

	producer
}

// NewQueryExecutionsMetadata builds an execution count entity.
func NewQueryExecutionsMetadata(query *QueryMetadata, startTime int64, windowDuration string, count int64) *QueryExecutionsMetadata {
	e := &QueryExecutionsMetadata{Query: query, StartTime: startTime, WindowDuration: windowDuration, ExecutionCount: count}
	e.init(e.nodes, e.relations, nil)
	return e
}

// Key formats {query_key}-{start_time}-{window}.
func (e *QueryExecutionsMetadata) Key() string {
	return fmt.Sprintf("%s-%d-%s", e.Query.Key(), e.StartTime, e.WindowDuration)
}

func (e *QueryExecutionsMetadata) nodes() []*graph.Node {
	return []*graph.Node{node(e.Key(), ExecutionLabel, graph.Attributes{
		"start_time":      graph.Long(e.StartTime),
		"window_duration": graph.String(e.WindowDuration),
		"execution_count": graph.Long(e.ExecutionCount),
	})}
}

func (e *QueryExecutionsMetadata) relations() []*graph.Relationship {
	return []*graph.Relationship{relation(QueryLabel, e.Query.Key(), ExecutionLabel, e.Key(),
		QueryExecutionRelationType, QueryExecutionReverseRelationType)}
}

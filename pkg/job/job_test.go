package job

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/testutil"
	"github.com/stretchr/testify/suite"
)

type fakeExtractor struct {
	records []any
	fail    error
	inited  bool
	closed  bool
}

func (f *fakeExtractor) Init(context.Context, *config.Config) error {
	f.inited = true
	return nil
}

func (f *fakeExtractor) Extract(context.Context) (any, error) {
	if len(f.records) == 0 {
		return nil, f.fail
	}
	r := f.records[0]
	f.records = f.records[1:]
	return r, nil
}

func (f *fakeExtractor) Close() error {
	f.closed = true
	return nil
}

func (f *fakeExtractor) Scope() string { return "fake_extractor" }

// dropOdd filters odd integers.
type dropOdd struct{}

func (dropOdd) Init(context.Context, *config.Config) error { return nil }
func (dropOdd) Close() error                               { return nil }
func (dropOdd) Scope() string                              { return "drop_odd" }

func (dropOdd) Transform(_ context.Context, r any) (any, error) {
	if n, ok := r.(int); ok && n%2 == 1 {
		return nil, nil
	}
	return r, nil
}

type fakeLoader struct {
	cfg    *config.Config
	loaded []any
	fail   error
	closed bool
}

func (f *fakeLoader) Init(_ context.Context, cfg *config.Config) error {
	f.cfg = cfg
	return nil
}

func (f *fakeLoader) Load(_ context.Context, r any) error {
	if f.fail != nil {
		return f.fail
	}
	f.loaded = append(f.loaded, r)
	return nil
}

func (f *fakeLoader) Close() error {
	f.closed = true
	return nil
}

func (f *fakeLoader) Scope() string { return "fake_loader" }

type fakePublisher struct {
	calls []string
	cfg   *config.Config
	fail  error
}

func (f *fakePublisher) Init(_ context.Context, cfg *config.Config) error {
	f.cfg = cfg
	f.calls = append(f.calls, "init")
	return nil
}

func (f *fakePublisher) Publish(context.Context) error {
	f.calls = append(f.calls, "publish")
	return f.fail
}

func (f *fakePublisher) Close() error {
	f.calls = append(f.calls, "close")
	return nil
}

func (f *fakePublisher) Scope() string { return "fake_publisher" }

type jobSuite struct {
	testutil.JobSuite
}

func TestJobSuite(t *testing.T) {
	suite.Run(t, new(jobSuite))
}

func (s *jobSuite) TestLaunchRunsTaskThenPublisher() {
	e := &fakeExtractor{records: []any{1, 2, 3, 4}}
	l := &fakeLoader{}
	p := &fakePublisher{}
	cfg := config.FromMap(map[string]interface{}{
		"loader.fake_loader.dir":     "/tmp/out",
		"publisher.fake_publisher.x": "y",
	})
	task := NewDefaultTask("unit", e, dropOdd{}, l)

	s.Require().NoError(New("unit", cfg, task, p).Launch(s.Context()))

	s.True(e.inited)
	s.True(e.closed)
	s.True(l.closed)
	s.Equal([]any{2, 4}, l.loaded)
	s.Equal("/tmp/out", l.cfg.GetString("dir", ""))
	s.Equal(Stats{Extracted: 4, Filtered: 2, Loaded: 2}, task.Stats())
	s.Equal([]string{"init", "publish", "close"}, p.calls)
	s.Equal("y", p.cfg.GetString("x", ""))
}

func (s *jobSuite) TestPublisherSkippedWhenTaskFails() {
	e := &fakeExtractor{records: []any{2}, fail: fmt.Errorf("source went away")}
	l := &fakeLoader{}
	p := &fakePublisher{}

	err := New("failing", config.New(), NewDefaultTask("failing", e, nil, l), p).Launch(s.Context())
	s.Require().Error(err)
	s.Contains(err.Error(), "source went away")
	s.True(l.closed)
	s.Equal([]any{2}, l.loaded)
	s.Empty(p.calls)
}

func (s *jobSuite) TestFailureCarriesPhase() {
	tests := []struct {
		name      string
		extractor *fakeExtractor
		loader    *fakeLoader
		publisher *fakePublisher
		phase     errors.Phase
		errType   errors.ErrorType
		prefix    string
	}{
		{
			name:      "extract",
			extractor: &fakeExtractor{fail: fmt.Errorf("source went away")},
			loader:    &fakeLoader{},
			publisher: &fakePublisher{},
			phase:     errors.PhaseExtract,
			errType:   errors.ErrorTypeInternal,
			prefix:    "extract fake_extractor: source went away",
		},
		{
			name:      "load",
			extractor: &fakeExtractor{records: []any{2}},
			loader:    &fakeLoader{fail: errors.New(errors.ErrorTypeValidation, "node key is required")},
			publisher: &fakePublisher{},
			phase:     errors.PhaseLoad,
			errType:   errors.ErrorTypeValidation,
			prefix:    "load fake_loader: validation: node key is required",
		},
		{
			name:      "publish",
			extractor: &fakeExtractor{},
			loader:    &fakeLoader{},
			publisher: &fakePublisher{fail: errors.New(errors.ErrorTypeConnection, "neo4j unreachable")},
			phase:     errors.PhasePublish,
			errType:   errors.ErrorTypeConnection,
			prefix:    "publish fake_publisher: connection: neo4j unreachable",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			task := NewDefaultTask(tt.name, tt.extractor, nil, tt.loader)
			err := New(tt.name, config.New(), task, tt.publisher).Launch(s.Context())
			s.Require().Error(err)
			s.Equal(tt.phase, errors.PhaseOf(err))
			s.True(errors.IsType(err, tt.errType))
			s.Contains(err.Error(), tt.prefix)
		})
	}
}

func (s *jobSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.Context())
	cancel()
	e := &fakeExtractor{records: []any{1}}
	err := NewDefaultTask("cancelled", e, nil, &fakeLoader{}).Run(ctx)
	s.Require().Error(err)
	s.True(errors.IsType(err, errors.ErrorTypeTimeout))
}

const tableCSV = `database,cluster,schema,name,description,tags,is_view,description_source
hive,gold,core,orders,all orders,finance,false,
`

const columnCSV = `database,cluster,schema,table_name,name,description,col_type,sort_order
hive,gold,core,orders,id,order id,bigint,0
hive,gold,core,orders,lines,,array<string>,1
`

func (s *jobSuite) TestFromConfig() {
	tables := s.WriteFile("in/tables.csv", tableCSV)
	columns := s.WriteFile("in/columns.csv", columnCSV)
	yaml := fmt.Sprintf(`
job:
  name: csv_to_neo4j
  extractor: csv_table_column
  transformers: [complex_type]
  loader: fs_neo4j_csv
extractor:
  csv_table_column:
    table_file_location: %s
    column_file_location: %s
loader:
  fs_neo4j_csv:
    node_dir_path: %s
    relationship_dir_path: %s
`, tables, columns, s.Dir("nodes"), s.Dir("relationships"))

	cfg, err := config.Parse([]byte(yaml), "yaml")
	s.Require().NoError(err)
	j, err := FromConfig(cfg)
	s.Require().NoError(err)
	s.Require().NoError(j.Launch(s.Context()))

	for _, name := range []string{"Table_0.csv", "Column_0.csv", "Type_Metadata_0.csv"} {
		_, err := os.Stat(s.Dir("nodes", name))
		s.NoError(err, name)
	}
	s.Equal(Stats{Extracted: 1, Loaded: 1}, j.task.(*DefaultTask).Stats())
}

func (s *jobSuite) TestFromConfigUnknownComponent() {
	cfg, err := config.Parse([]byte("job:\n  extractor: nope\n  loader: fs_neo4j_csv\n"), "yaml")
	s.Require().NoError(err)
	_, err = FromConfig(cfg)
	s.Require().Error(err)
	s.True(errors.IsType(err, errors.ErrorTypeConfig))
}

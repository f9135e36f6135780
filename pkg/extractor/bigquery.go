package extractor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/ajitpratap0/databuilder/pkg/models"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BigQuery extractor configuration.
const (
	BigQueryScope         = "bigquery_metadata"
	ProjectIDKey          = "project_id"
	CredentialsFileKey    = "credentials_file"
	DatasetPrefixKey      = "dataset_prefix"
	bigQueryDatabase      = "bigquery"
	bigQueryRecordType    = "record"
	bigQueryRepeatedShape = "array<%s>"
)

// BigQueryExtractor walks every dataset of a project and emits one
// TableMetadata per table. Nested RECORD and REPEATED fields become
// struct<...> and array<...> type strings.
type BigQueryExtractor struct {
	project  string
	prefix   string
	client   *bigquery.Client
	datasets *bigquery.DatasetIterator
	tables   *bigquery.TableIterator
	dataset  string
	dedup    *models.DedupSet
	logger   *zap.Logger
}

// Scope implements Extractor.
func (e *BigQueryExtractor) Scope() string { return BigQueryScope }

// Init creates the BigQuery client.
func (e *BigQueryExtractor) Init(ctx context.Context, cfg *config.Config) error {
	e.logger = logger.Get().With(zap.String("component", BigQueryScope))

	project, err := cfg.RequireString(ProjectIDKey)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, BigQueryScope)
	}
	e.project = project
	e.prefix = cfg.GetString(DatasetPrefixKey, "")
	e.dedup = models.NewDedupSet()

	var opts []option.ClientOption
	if path := cfg.GetString(CredentialsFileKey, ""); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to create BigQuery client")
	}
	e.client = client

	e.logger.Info("bigquery extractor initialized", zap.String("project", project))
	return nil
}

// Extract returns the next table of the project.
func (e *BigQueryExtractor) Extract(ctx context.Context) (any, error) {
	if e.client == nil {
		return nil, nil
	}
	if e.datasets == nil {
		e.datasets = e.client.Datasets(ctx)
	}

	for {
		if e.tables == nil {
			ds, err := e.datasets.Next()
			if err == iterator.Done {
				return nil, nil
			}
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeQuery, "list datasets")
			}
			if !strings.HasPrefix(ds.DatasetID, e.prefix) {
				continue
			}
			e.dataset = ds.DatasetID
			e.tables = ds.Tables(ctx)
		}

		t, err := e.tables.Next()
		if err == iterator.Done {
			e.tables = nil
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeQuery, fmt.Sprintf("list tables of %s", e.dataset))
		}

		md, err := t.Metadata(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeQuery, fmt.Sprintf("read metadata of %s.%s", e.dataset, t.TableID))
		}
		return tableFromBigQuery(e.project, e.dataset, t.TableID, md, models.WithDedup(e.dedup))
	}
}

// Close releases the client.
func (e *BigQueryExtractor) Close() error {
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}

// tableFromBigQuery maps table metadata onto the catalog model. The project
// is the cluster and the dataset the schema. Label keys become tags.
func tableFromBigQuery(project, dataset, table string, md *bigquery.TableMetadata,
	opts ...models.TableOption) (*models.TableMetadata, error) {
	cols := make([]*models.ColumnMetadata, 0, len(md.Schema))
	for i, f := range md.Schema {
		cols = append(cols, models.NewColumnMetadata(f.Name, bigQueryType(f), f.Description, i))
	}

	tags := make([]string, 0, len(md.Labels))
	for k := range md.Labels {
		tags = append(tags, k)
	}
	sort.Strings(tags)

	return models.NewTableMetadata(bigQueryDatabase, project, dataset, table, md.Description, cols,
		md.Type == bigquery.ViewTable, tags, opts...)
}

// bigQueryType renders a field type in the complex-type grammar.
func bigQueryType(f *bigquery.FieldSchema) string {
	t := strings.ToLower(string(f.Type))
	if t == bigQueryRecordType {
		fields := make([]string, 0, len(f.Schema))
		for _, sub := range f.Schema {
			fields = append(fields, sub.Name+":"+bigQueryType(sub))
		}
		t = "struct<" + strings.Join(fields, ",") + ">"
	}
	if f.Repeated {
		t = fmt.Sprintf(bigQueryRepeatedShape, t)
	}
	return t
}

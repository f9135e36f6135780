package transformer

import (
	"github.com/ajitpratap0/databuilder/pkg/models"
)

// Built-in model classes for dict_to_model.
const (
	TableMetadataModel     = "table_metadata"
	WatermarkModel         = "watermark"
	TableOwnerModel        = "table_owner"
	TableLastUpdatedModel  = "table_last_updated"
	TableColumnStatsModel  = "table_column_stats"
	ApplicationModel       = "application"
	UserModel              = "user"
	DashboardMetadataModel = "dashboard_metadata"
	DashboardUsageModel    = "dashboard_usage"
	TableLineageModel      = "table_lineage"
	ColumnLineageModel     = "column_lineage"
	BadgeModel             = "badge_metadata"
	SchemaModel            = "schema"
	FeatureMetadataModel   = "feature_metadata"
)

func init() {
	RegisterModel(TableMetadataModel, buildTable)
	RegisterModel(WatermarkModel, buildWatermark)
	RegisterModel(TableOwnerModel, buildTableOwner)
	RegisterModel(TableLastUpdatedModel, buildTableLastUpdated)
	RegisterModel(TableColumnStatsModel, buildColumnStats)
	RegisterModel(ApplicationModel, buildApplication)
	RegisterModel(UserModel, buildUser)
	RegisterModel(DashboardMetadataModel, buildDashboard)
	RegisterModel(DashboardUsageModel, buildDashboardUsage)
	RegisterModel(TableLineageModel, buildLineage(models.NewTableLineage, "table_key"))
	RegisterModel(ColumnLineageModel, buildLineage(models.NewColumnLineage, "column_key"))
	RegisterModel(BadgeModel, buildBadges)
	RegisterModel(SchemaModel, buildSchema)
	RegisterModel(FeatureMetadataModel, buildFeature)
}

type tableLocation struct {
	Database string `mapstructure:"database"`
	Cluster  string `mapstructure:"cluster"`
	Schema   string `mapstructure:"schema"`
	Table    string `mapstructure:"table_name"`
}

type columnDict struct {
	Name        string   `mapstructure:"name"`
	Description string   `mapstructure:"description"`
	Type        string   `mapstructure:"col_type"`
	SortOrder   int      `mapstructure:"sort_order"`
	Badges      []string `mapstructure:"badges"`
}

type tableDict struct {
	Loc               tableLocation `mapstructure:",squash"`
	Description       string        `mapstructure:"description"`
	DescriptionSource string        `mapstructure:"description_source"`
	IsView            bool          `mapstructure:"is_view"`
	Tags              []string      `mapstructure:"tags"`
	Columns           []columnDict  `mapstructure:"columns"`
}

func buildTable(values map[string]any, dedup *models.DedupSet) (any, error) {
	var d tableDict
	if err := decode(values, &d); err != nil {
		return nil, err
	}
	cols := make([]*models.ColumnMetadata, 0, len(d.Columns))
	for _, c := range d.Columns {
		cols = append(cols, models.NewColumnMetadata(c.Name, c.Type, c.Description, c.SortOrder, c.Badges...))
	}
	opts := []models.TableOption{models.WithDedup(dedup)}
	if d.DescriptionSource != "" {
		opts = append(opts, models.WithDescriptionSource(d.DescriptionSource))
	}
	return models.NewTableMetadata(d.Loc.Database, d.Loc.Cluster, d.Loc.Schema, d.Loc.Table, d.Description, cols, d.IsView, d.Tags, opts...)
}

func buildWatermark(values map[string]any, _ *models.DedupSet) (any, error) {
	var d struct {
		Loc        tableLocation `mapstructure:",squash"`
		CreateTime string        `mapstructure:"create_time"`
		PartName   string        `mapstructure:"part_name"`
		PartType   string        `mapstructure:"part_type"`
	}
	if err := decode(values, &d); err != nil {
		return nil, err
	}
	return models.NewWatermark(d.CreateTime, d.Loc.Database, d.Loc.Cluster, d.Loc.Schema, d.Loc.Table, d.PartName, d.PartType)
}

func buildTableOwner(values map[string]any, _ *models.DedupSet) (any, error) {
	var d struct {
		Loc    tableLocation `mapstructure:",squash"`
		Owners []string      `mapstructure:"owners"`
	}
	if err := decode(values, &d); err != nil {
		return nil, err
	}
	return models.NewTableOwner(d.Loc.Database, d.Loc.Cluster, d.Loc.Schema, d.Loc.Table, d.Owners), nil
}

func buildTableLastUpdated(values map[string]any, _ *models.DedupSet) (any, error) {
	var d struct {
		Loc         tableLocation `mapstructure:",squash"`
		LastUpdated int64         `mapstructure:"last_updated_time_epoch"`
	}
	if err := decode(values, &d); err != nil {
		return nil, err
	}
	return models.NewTableLastUpdated(d.Loc.Database, d.Loc.Cluster, d.Loc.Schema, d.Loc.Table, d.LastUpdated), nil
}

func buildColumnStats(values map[string]any, _ *models.DedupSet) (any, error) {
	var d struct {
		Loc        tableLocation `mapstructure:",squash"`
		Column     string        `mapstructure:"col_name"`
		StatName   string        `mapstructure:"stat_name"`
		StatValue  string        `mapstructure:"stat_val"`
		StartEpoch string        `mapstructure:"start_epoch"`
		EndEpoch   string        `mapstructure:"end_epoch"`
	}
	if err := decode(values, &d); err != nil {
		return nil, err
	}
	return models.NewTableColumnStats(d.Loc.Database, d.Loc.Cluster, d.Loc.Schema, d.Loc.Table, d.Column,
		d.StatName, d.StatValue, d.StartEpoch, d.EndEpoch), nil
}

func buildApplication(values map[string]any, _ *models.DedupSet) (any, error) {
	var d struct {
		Loc         tableLocation `mapstructure:",squash"`
		TaskID      string        `mapstructure:"task_id"`
		DagID       string        `mapstructure:"dag_id"`
		URLTemplate string        `mapstructure:"application_url_template"`
	}
	if err := decode(values, &d); err != nil {
		return nil, err
	}
	return models.NewApplication(d.TaskID, d.DagID, d.URLTemplate, d.Loc.Database, d.Loc.Cluster, d.Loc.Schema, d.Loc.Table), nil
}

func buildUser(values map[string]any, _ *models.DedupSet) (any, error) {
	var d struct {
		Email          string `mapstructure:"email"`
		FirstName      string `mapstructure:"first_name"`
		LastName       string `mapstructure:"last_name"`
		FullName       string `mapstructure:"full_name"`
		GithubUsername string `mapstructure:"github_username"`
		TeamName       string `mapstructure:"team_name"`
		EmployeeType   string `mapstructure:"employee_type"`
		ManagerEmail   string `mapstructure:"manager_email"`
		SlackID        string `mapstructure:"slack_id"`
		RoleName       string `mapstructure:"role_name"`
		IsActive       bool   `mapstructure:"is_active"`
		UpdatedAt      int64  `mapstructure:"updated_at"`
	}
	d.IsActive = true
	if err := decode(values, &d); err != nil {
		return nil, err
	}
	return models.NewUser(models.User{
		Email:          d.Email,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		FullName:       d.FullName,
		GithubUsername: d.GithubUsername,
		TeamName:       d.TeamName,
		EmployeeType:   d.EmployeeType,
		ManagerEmail:   d.ManagerEmail,
		SlackID:        d.SlackID,
		RoleName:       d.RoleName,
		IsActive:       d.IsActive,
		UpdatedAt:      d.UpdatedAt,
	})
}

type dashboardRef struct {
	Product     string `mapstructure:"product"`
	Cluster     string `mapstructure:"cluster"`
	GroupID     string `mapstructure:"dashboard_group_id"`
	DashboardID string `mapstructure:"dashboard_id"`
}

func (r dashboardRef) ref() models.DashboardRef {
	return models.DashboardRef{Product: r.Product, Cluster: r.Cluster, GroupID: r.GroupID, DashboardID: r.DashboardID}
}

func buildDashboard(values map[string]any, _ *models.DedupSet) (any, error) {
	var d struct {
		Ref              dashboardRef `mapstructure:",squash"`
		GroupName        string       `mapstructure:"dashboard_group"`
		Name             string       `mapstructure:"dashboard_name"`
		Description      string       `mapstructure:"description"`
		GroupDescription string       `mapstructure:"dashboard_group_description"`
		GroupURL         string       `mapstructure:"dashboard_group_url"`
		URL              string       `mapstructure:"dashboard_url"`
		CreatedTimestamp int64        `mapstructure:"created_timestamp"`
		Tags             []string     `mapstructure:"tags"`
	}
	if err := decode(values, &d); err != nil {
		return nil, err
	}
	return models.NewDashboardMetadata(models.DashboardMetadata{
		DashboardRef:     d.Ref.ref(),
		GroupName:        d.GroupName,
		Name:             d.Name,
		Description:      d.Description,
		GroupDescription: d.GroupDescription,
		GroupURL:         d.GroupURL,
		URL:              d.URL,
		CreatedTimestamp: d.CreatedTimestamp,
		Tags:             d.Tags,
	}), nil
}

func buildDashboardUsage(values map[string]any, _ *models.DedupSet) (any, error) {
	var d struct {
		Ref        dashboardRef `mapstructure:",squash"`
		Email      string       `mapstructure:"email"`
		ViewCount  int64        `mapstructure:"view_count"`
		CreateUser bool         `mapstructure:"should_create_user_node"`
	}
	if err := decode(values, &d); err != nil {
		return nil, err
	}
	return models.NewDashboardUsage(d.Ref.ref(), d.Email, d.ViewCount, d.CreateUser), nil
}

func buildLineage(ctor func(string, []string) (*models.Lineage, error), keyField string) ModelBuilder {
	return func(values map[string]any, _ *models.DedupSet) (any, error) {
		var d struct {
			Downstream []string `mapstructure:"downstream_deps"`
		}
		if err := decode(values, &d); err != nil {
			return nil, err
		}
		key, _ := values[keyField].(string)
		return ctor(key, d.Downstream)
	}
}

func buildBadges(values map[string]any, _ *models.DedupSet) (any, error) {
	var d struct {
		StartLabel string `mapstructure:"start_label"`
		StartKey   string `mapstructure:"start_key"`
		Badges     []struct {
			Name     string `mapstructure:"name"`
			Category string `mapstructure:"category"`
		} `mapstructure:"badges"`
	}
	if err := decode(values, &d); err != nil {
		return nil, err
	}
	badges := make([]models.Badge, 0, len(d.Badges))
	for _, b := range d.Badges {
		badges = append(badges, models.Badge{Name: b.Name, Category: b.Category})
	}
	return models.NewBadgeMetadata(d.StartLabel, d.StartKey, badges...), nil
}

func buildSchema(values map[string]any, _ *models.DedupSet) (any, error) {
	var d struct {
		Key         string `mapstructure:"schema_key"`
		Name        string `mapstructure:"schema"`
		Description string `mapstructure:"description"`
		Source      string `mapstructure:"description_source"`
	}
	if err := decode(values, &d); err != nil {
		return nil, err
	}
	return models.NewSchemaModel(d.Key, d.Name, d.Description, d.Source), nil
}

func buildFeature(values map[string]any, dedup *models.DedupSet) (any, error) {
	var d struct {
		Group                string   `mapstructure:"feature_group"`
		Name                 string   `mapstructure:"name"`
		Version              string   `mapstructure:"version"`
		Status               string   `mapstructure:"status"`
		Entity               string   `mapstructure:"entity"`
		DataType             string   `mapstructure:"data_type"`
		Availability         []string `mapstructure:"availability"`
		Description          string   `mapstructure:"description"`
		Tags                 []string `mapstructure:"tags"`
		CreatedTimestamp     int64    `mapstructure:"created_timestamp"`
		LastUpdatedTimestamp int64    `mapstructure:"last_updated_timestamp"`
	}
	if err := decode(values, &d); err != nil {
		return nil, err
	}
	return models.NewFeatureMetadata(models.FeatureMetadata{
		Group:                d.Group,
		Name:                 d.Name,
		Version:              d.Version,
		Status:               d.Status,
		Entity:               d.Entity,
		DataType:             d.DataType,
		Availability:         d.Availability,
		Description:          d.Description,
		Tags:                 d.Tags,
		CreatedTimestamp:     d.CreatedTimestamp,
		LastUpdatedTimestamp: d.LastUpdatedTimestamp,
	}, dedup), nil
}

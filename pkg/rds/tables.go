package rds

// Catalog tables.
var (
	DatabaseMetadata  = declare("database_metadata", rk(), key("rk"), str("name"))
	ClusterMetadata   = declare("cluster_metadata", rk(), key("rk"), str("name"), str("database_rk"))
	SchemaMetadata    = declare("schema_metadata", rk(), key("rk"), str("name"), str("cluster_rk"))
	SchemaDescription = declare("schema_description", rk(),
		key("rk"), str("description_source"), text("description"), str("schema_rk"))
	TableMetadata    = declare("table_metadata", rk(), key("rk"), str("name"), boolean("is_view"), str("schema_rk"))
	TableDescription = declare("table_description", rk(),
		key("rk"), str("description_source"), text("description"), str("table_rk"))
	ColumnMetadata = declare("column_metadata", rk(),
		key("rk"), str("name"), str("type"), integer("sort_order"), str("table_rk"))
	ColumnDescription = declare("column_description", rk(),
		key("rk"), str("description_source"), text("description"), str("column_rk"))
	TypeMetadata = declare("type_metadata", rk(),
		key("rk"), str("name"), str("kind"), str("data_type"), integer("sort_order"),
		str("column_rk"), str("parent_rk"))
	TagMetadata = declare("tag_metadata", rk(), key("rk"), str("tag_type"))
	TableTag    = declare("table_tag", pair("table_rk", "tag_rk"), key("table_rk"), key("tag_rk"))
	Badge       = declare("badge", rk(), key("rk"), str("category"))
	TableBadge  = declare("table_badge", pair("table_rk", "badge_rk"), key("table_rk"), key("badge_rk"))
	ColumnBadge = declare("column_badge", pair("column_rk", "badge_rk"), key("column_rk"), key("badge_rk"))

	TableWatermark = declare("table_watermark", rk(),
		key("rk"), str("partition_key"), str("partition_value"), str("create_time"), str("table_rk"))
	TableTimestamp = declare("table_timestamp", rk(),
		key("rk"), long("last_updated_timestamp"), str("timestamp"), str("table_rk"))
	ColumnStat = declare("column_stat", rk(),
		key("rk"), str("stat_type"), str("stat_val"), str("start_epoch"), str("end_epoch"), str("column_rk"))
	TableLineage = declare("table_lineage", pair("table_source_rk", "table_target_rk"),
		key("table_source_rk"), key("table_target_rk"))
	ColumnLineage = declare("column_lineage", pair("column_source_rk", "column_target_rk"),
		key("column_source_rk"), key("column_target_rk"))
	TableReport = declare("table_report", rk(), key("rk"), str("name"), text("url"), str("table_rk"))
)

// People and usage tables.
var (
	User = declare("user", rk(),
		key("rk"), str("email"), str("first_name"), str("last_name"), str("full_name"),
		str("github_username"), str("team_name"), str("employee_type"), str("manager_rk"),
		str("slack_id"), str("role_name"), boolean("is_active"), long("updated_at"))
	TableOwner = declare("table_owner", pair("table_rk", "user_rk"), key("table_rk"), key("user_rk"))
	TableUsage = declare("table_usage", pair("user_rk", "table_rk"),
		key("user_rk"), key("table_rk"), long("read_count"))
)

// Application tables.
var (
	Application = declare("application", rk(),
		key("rk"), text("application_url"), str("name"), str("id"), text("description"))
	ApplicationTable = declare("application_table", pair("application_rk", "table_rk"),
		key("application_rk"), key("table_rk"))
)

// Dashboard tables.
var (
	DashboardCluster = declare("dashboard_cluster", rk(), key("rk"), str("name"))
	DashboardGroup   = declare("dashboard_group", rk(),
		key("rk"), str("name"), text("dashboard_group_url"), str("cluster_rk"))
	DashboardGroupDescription = declare("dashboard_group_description", rk(),
		key("rk"), text("description"), str("dashboard_group_rk"))
	Dashboard = declare("dashboard_metadata", rk(),
		key("rk"), str("name"), text("dashboard_url"), long("created_timestamp"), str("dashboard_group_rk"))
	DashboardDescription = declare("dashboard_description", rk(),
		key("rk"), text("description"), str("dashboard_rk"))
	DashboardTag = declare("dashboard_tag", pair("dashboard_rk", "tag_rk"),
		key("dashboard_rk"), key("tag_rk"))
	DashboardTable = declare("dashboard_table", pair("dashboard_rk", "table_rk"),
		key("dashboard_rk"), key("table_rk"))
	DashboardOwner = declare("dashboard_owner", pair("dashboard_rk", "user_rk"),
		key("dashboard_rk"), key("user_rk"))
	DashboardUsage = declare("dashboard_usage", pair("dashboard_rk", "user_rk"),
		key("dashboard_rk"), key("user_rk"), long("read_count"))
	DashboardTimestamp = declare("dashboard_timestamp", rk(),
		key("rk"), long("timestamp"), str("dashboard_rk"))
	DashboardQuery = declare("dashboard_query", rk(),
		key("rk"), str("name"), str("id"), text("url"), text("query_text"), str("dashboard_rk"))
	DashboardChart = declare("dashboard_chart", rk(),
		key("rk"), str("id"), str("name"), str("type"), text("url"), str("query_rk"))
)

// Feature tables.
var (
	FeatureGroup = declare("feature_group", rk(), key("rk"), str("name"))
	Feature      = declare("feature_metadata", rk(),
		key("rk"), str("name"), str("version"), str("status"), str("entity"), str("data_type"),
		long("created_timestamp"), long("last_updated_timestamp"), str("feature_group_rk"))
	FeatureStat = declare("feature_stat", rk(), key("rk"), str("stat_type"), double("stat_val"), str("feature_rk"))
)

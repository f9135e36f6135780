package models

import (
	"strings"

	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

const (
	ManagerRelationType        = "MANAGE_BY"
	ManagerReverseRelationType = "MANAGE"

	OwnerRelationType        = "OWNER"
	OwnerReverseRelationType = "OWNER_OF"
)

// User is a person in the catalog, keyed by email.
type User struct {
	Email          string
	FirstName      string
	LastName       string
	FullName       string
	GithubUsername string
	TeamName       string
	EmployeeType   string
	ManagerEmail   string
	SlackID        string
	RoleName       string
	IsActive       bool
	UpdatedAt      int64

	// Attributes are extra properties set on the user node.
	Attributes graph.Attributes

	producer
}

// NewUser builds a user entity. Email is required.
func NewUser(u User) (*User, error) {
	if u.Email == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "user requires email")
	}
	out := u
	out.Attributes = u.Attributes.Clone()
	if out.FullName == "" && (out.FirstName != "" || out.LastName != "") {
		out.FullName = strings.TrimSpace(out.FirstName + " " + out.LastName)
	}
	out.init(out.nodes, out.relations, out.records)
	return &out, nil
}

// UserKey is the user's email.
func UserKey(email string) string { return email }

// Key returns the user key.
func (u *User) Key() string { return UserKey(u.Email) }

func (u *User) nodeAttributes() graph.Attributes {
	attrs := u.Attributes.Clone()
	if attrs == nil {
		attrs = graph.Attributes{}
	}
	attrs["email"] = graph.String(u.Email)
	attrs["first_name"] = graph.String(u.FirstName)
	attrs["last_name"] = graph.String(u.LastName)
	attrs["full_name"] = graph.String(u.FullName)
	attrs["github_username"] = graph.String(u.GithubUsername)
	attrs["team_name"] = graph.String(u.TeamName)
	attrs["employee_type"] = graph.String(u.EmployeeType)
	attrs["slack_id"] = graph.String(u.SlackID)
	attrs["role_name"] = graph.String(u.RoleName)
	attrs["is_active"] = graph.Bool(u.IsActive)
	attrs["updated_at"] = graph.Long(u.UpdatedAt)
	return attrs
}

func (u *User) nodes() []*graph.Node {
	return []*graph.Node{node(u.Key(), UserLabel, u.nodeAttributes())}
}

func (u *User) relations() []*graph.Relationship {
	if u.ManagerEmail == "" {
		return nil
	}
	return []*graph.Relationship{relation(UserLabel, u.Key(), UserLabel, UserKey(u.ManagerEmail),
		ManagerRelationType, ManagerReverseRelationType)}
}

func (u *User) records() []*graph.Record {
	values := graph.Attributes{
		"rk":              graph.String(u.Key()),
		"email":           graph.String(u.Email),
		"first_name":      graph.String(u.FirstName),
		"last_name":       graph.String(u.LastName),
		"full_name":       graph.String(u.FullName),
		"github_username": graph.String(u.GithubUsername),
		"team_name":       graph.String(u.TeamName),
		"employee_type":   graph.String(u.EmployeeType),
		"slack_id":        graph.String(u.SlackID),
		"role_name":       graph.String(u.RoleName),
		"is_active":       graph.Bool(u.IsActive),
		"updated_at":      graph.Long(u.UpdatedAt),
	}
	if u.ManagerEmail != "" {
		values["manager_rk"] = graph.String(UserKey(u.ManagerEmail))
	}
	return []*graph.Record{record(rds.User, values)}
}

// TableOwner links a table to its owners.
type TableOwner struct {
	Database string
	Cluster  string
	Schema   string
	Table    string
	Owners   []string

	producer
}

// NewTableOwner builds an ownership entity. owners is a list of emails;
// blanks are dropped.
func NewTableOwner(database, cluster, schema, table string, owners []string) *TableOwner {
	var cleaned []string
	for _, o := range owners {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, o)
		}
	}
	t := &TableOwner{Database: database, Cluster: cluster, Schema: schema, Table: table, Owners: cleaned}
	t.init(t.nodes, t.relations, t.records)
	return t
}

func (t *TableOwner) tableKey() string {
	return TableKey(t.Database, t.Cluster, t.Schema, t.Table)
}

func (t *TableOwner) nodes() []*graph.Node {
	out := make([]*graph.Node, 0, len(t.Owners))
	for _, o := range t.Owners {
		out = append(out, node(UserKey(o), UserLabel, graph.Attributes{"email": graph.String(o)}))
	}
	return out
}

func (t *TableOwner) relations() []*graph.Relationship {
	out := make([]*graph.Relationship, 0, len(t.Owners))
	for _, o := range t.Owners {
		out = append(out, relation(TableLabel, t.tableKey(), UserLabel, UserKey(o),
			OwnerRelationType, OwnerReverseRelationType))
	}
	return out
}

func (t *TableOwner) records() []*graph.Record {
	var out []*graph.Record
	for _, o := range t.Owners {
		out = append(out,
			record(rds.User, graph.Attributes{"rk": graph.String(UserKey(o)), "email": graph.String(o)}),
			record(rds.TableOwner, graph.Attributes{
				"table_rk": graph.String(t.tableKey()),
				"user_rk":  graph.String(UserKey(o)),
			}),
		)
	}
	return out
}

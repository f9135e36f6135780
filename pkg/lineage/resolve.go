package lineage

// resolve binds each SELECT list reference to the FROM sources.
func resolve(refs []ref, sources []source) relation {
	var out relation
	for _, r := range refs {
		switch {
		case r.star && r.qualifier == "":
			for _, s := range sources {
				s.expand(&out)
			}

		case r.star:
			if s, ok := find(sources, r.qualifier); ok {
				s.expand(&out)
			}

		case r.qualifier != "":
			if s, ok := find(sources, r.qualifier); ok {
				if c, ok := s.lookup(r.name, r.alias); ok {
					out.add(c, r.outputName())
				}
			}

		default:
			if c, ok := resolveUnqualified(r, sources); ok {
				out.add(c, r.outputName())
			}
		}
	}
	return out
}

func resolveUnqualified(r ref, sources []source) (Column, bool) {
	if len(sources) == 1 {
		return sources[0].lookup(r.name, r.alias)
	}

	var derived []Column
	var tables []*Table
	for _, s := range sources {
		if s.produces(r.name) {
			return Column{}, false
		}
		if s.derived() {
			if c, ok := s.lookup(r.name, r.alias); ok {
				derived = append(derived, c)
			}
			continue
		}
		tables = append(tables, s.table)
	}

	switch {
	case len(derived) == 1:
		return derived[0], true
	case len(derived) > 1:
		for _, c := range derived {
			tables = append(tables, c.Table.Candidates()...)
		}
	}
	switch len(tables) {
	case 0:
		return Column{}, false
	case 1:
		return Column{Name: r.name, Alias: r.alias, Table: tables[0]}, true
	}
	return Column{Name: r.name, Alias: r.alias, Table: &OrTable{Tables: tables}}, true
}

func find(sources []source, qualifier string) (source, bool) {
	for _, s := range sources {
		if s.alias == qualifier {
			return s, true
		}
	}
	for _, s := range sources {
		if !s.derived() && s.table.Name == qualifier {
			return s, true
		}
	}
	return source{}, false
}

func (s source) produces(name string) bool {
	for _, n := range s.opaque {
		if n == name {
			return true
		}
	}
	return false
}

// expand adds the columns a wildcard over s stands for.
func (s source) expand(out *relation) {
	if !s.derived() {
		out.add(Column{Name: "*", Table: s.table}, "*")
		return
	}
	for i, c := range s.rel.columns {
		out.add(c, s.rel.names[i])
	}
}

// lookup resolves name against s. A derived source matches on the output
// names of its columns and falls back to its wildcards.
func (s source) lookup(name, alias string) (Column, bool) {
	if !s.derived() {
		return Column{Name: name, Alias: alias, Table: s.table}, true
	}

	var stars []*Table
	for i, c := range s.rel.columns {
		if s.rel.names[i] == name {
			return Column{Name: c.Name, Alias: alias, Table: c.Table}, true
		}
		if c.Name == "*" {
			stars = append(stars, c.Table.Candidates()...)
		}
	}
	switch len(stars) {
	case 0:
		return Column{}, false
	case 1:
		return Column{Name: name, Alias: alias, Table: stars[0]}, true
	}
	return Column{Name: name, Alias: alias, Table: &OrTable{Tables: stars}}, true
}

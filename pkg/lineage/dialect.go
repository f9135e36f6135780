package lineage

import "strings"

// normalize rewrites the Hive and Presto spellings the Postgres grammar
// rejects: backquoted identifiers become double-quoted and try_cast becomes
// cast. String literals, quoted identifiers and comments are copied as is.
func normalize(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))
	for i := 0; i < len(sql); {
		c := sql[i]
		switch {
		case c == '\'' || c == '"':
			j := closing(sql, i+1, c)
			b.WriteString(sql[i:j])
			i = j
		case c == '`':
			j := closing(sql, i+1, '`')
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(strings.TrimSuffix(sql[i+1:j], "`"), `"`, `""`))
			b.WriteByte('"')
			i = j
		case c == '-' && strings.HasPrefix(sql[i:], "--"):
			j := strings.IndexByte(sql[i:], '\n')
			if j < 0 {
				j = len(sql) - i
			}
			b.WriteString(sql[i : i+j])
			i += j
		case isIdentStart(c):
			j := i + 1
			for j < len(sql) && isIdentPart(sql[j]) {
				j++
			}
			word := sql[i:j]
			if strings.EqualFold(word, "try_cast") && strings.HasPrefix(strings.TrimLeft(sql[j:], " \t\r\n"), "(") {
				word = "cast"
			}
			b.WriteString(word)
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// closing returns the index just past the quote that closes a literal
// starting at from. A doubled quote is an escaped quote.
func closing(sql string, from int, quote byte) int {
	for j := from; j < len(sql); j++ {
		if sql[j] != quote {
			continue
		}
		if j+1 < len(sql) && sql[j+1] == quote {
			j++
			continue
		}
		return j + 1
	}
	return len(sql)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '$'
}

package validate

import "strings"

var reservedWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		ADD ALL ALTER AND ANY AS ASC BETWEEN BY CASE CAST CHECK COLUMN CONSTRAINT
		CREATE CROSS CURRENT_DATE CURRENT_TIME CURRENT_TIMESTAMP DATABASE DEFAULT
		DELETE DESC DISTINCT DROP ELSE END EXCEPT EXISTS FALSE FETCH FOR FOREIGN
		FROM FULL GRANT GROUP HAVING IN INDEX INNER INSERT INTERSECT INTO IS JOIN
		KEY LEFT LIKE LIMIT NOT NULL OFFSET ON OR ORDER OUTER PRIMARY REFERENCES
		REVOKE RIGHT ROW ROWS SELECT SET TABLE THEN TO TRUE UNION UNIQUE UPDATE
		USER USING VALUES VIEW WHEN WHERE WITH`) {
		reservedWords[w] = struct{}{}
	}
}

// IsReservedWord reports whether s collides with a common SQL keyword
func IsReservedWord(s string) bool {
	_, found := reservedWords[strings.ToUpper(s)]
	return found
}

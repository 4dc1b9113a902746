package sqlite

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	sqlitedriver "modernc.org/sqlite"
)

// foldFuncName is the SQL name of foldCase. SQLite's LOWER only folds ASCII,
// so search predicates fold both sides with this instead.
const foldFuncName = "dayplan_fold"

// registerFold installs foldCase in the driver once per process. The driver
// keeps registrations global and rejects a second one under the same name.
var registerFold = sync.OnceValue(func() error {
	return sqlitedriver.RegisterDeterministicScalarFunction(foldFuncName, 1, foldCase)
})

// foldSearch lowercases text with the rule foldCase applies in SQL.
func foldSearch(s string) string {
	return strings.ToLower(s)
}

func foldCase(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return foldSearch(v), nil
	case []byte:
		return foldSearch(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", foldFuncName, v)
	}
}

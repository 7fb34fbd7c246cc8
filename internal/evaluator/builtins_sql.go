package evaluator

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// SQLite access. sql/open hands the script an opaque Uvar; the
// connection itself lives in the evaluator's handle table.

func registerSQLBuiltins(e *Evaluator) {
	natives := []*NativeFunc{
		{Name: "sql/open", Fn: biSQLOpen},
		{Name: "sql/query", Fn: biSQLQuery},
		{Name: "sql/exec", Fn: biSQLExec},
		{Name: "sql/close", Fn: biSQLClose},
	}
	for _, n := range natives {
		e.Global.Set(n.Name, n)
	}
}

func biSQLOpen(e *Evaluator, args []Value) Value {
	path, err := oneString("sql/open", args)
	if err != nil {
		return err
	}
	db, oerr := sql.Open("sqlite", path)
	if oerr != nil {
		return newKindError(ErrIO, "sql/open: %s", oerr.Error())
	}
	if perr := db.Ping(); perr != nil {
		db.Close()
		return newKindError(ErrIO, "sql/open: %s", perr.Error())
	}
	return e.handles.put(db)
}

func sqlConn(e *Evaluator, name string, v Value) (*sql.DB, *Error) {
	u, ok := v.(*Uvar)
	if !ok {
		return nil, newKindError(ErrType, "%s needs a database handle, got %s", name, v.Type())
	}
	r, ok := e.handles.get(u)
	if !ok {
		return nil, newKindError(ErrIO, "%s: database handle is closed", name)
	}
	db, ok := r.(*sql.DB)
	if !ok {
		return nil, newKindError(ErrType, "%s: handle is not a database connection", name)
	}
	return db, nil
}

func sqlParams(args []Value) ([]interface{}, *Error) {
	params := make([]interface{}, len(args))
	for i, arg := range args {
		g, err := valueToGo(arg)
		if err != nil {
			return nil, newKindError(ErrType, "unsupported query parameter: %s", err.Error())
		}
		params[i] = g
	}
	return params, nil
}

// sql/query returns a list of row maps keyed by column keyword.
func biSQLQuery(e *Evaluator, args []Value) Value {
	if len(args) < 2 {
		return newKindError(ErrArgCount, "sql/query needs a handle, a query string and optional parameters")
	}
	db, err := sqlConn(e, "sql/query", args[0])
	if err != nil {
		return err
	}
	query, ok := args[1].(*String)
	if !ok {
		return newKindError(ErrType, "sql/query needs a string query, got %s", args[1].Type())
	}
	params, err := sqlParams(args[2:])
	if err != nil {
		return err
	}
	rows, qerr := db.Query(query.Value, params...)
	if qerr != nil {
		return newKindError(ErrIO, "sql/query: %s", qerr.Error())
	}
	defer rows.Close()

	cols, cerr := rows.Columns()
	if cerr != nil {
		return newKindError(ErrIO, "sql/query: %s", cerr.Error())
	}
	var out []Value
	for rows.Next() {
		cells := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if serr := rows.Scan(ptrs...); serr != nil {
			return newKindError(ErrIO, "sql/query: %s", serr.Error())
		}
		m := EmptyMap()
		for i, col := range cols {
			v, verr := sqlCellValue(e, cells[i])
			if verr != nil {
				return verr
			}
			m = m.Put(e.KeywordVal(col), v)
		}
		out = append(out, &Map{Entries: m})
	}
	if rerr := rows.Err(); rerr != nil {
		return newKindError(ErrIO, "sql/query: %s", rerr.Error())
	}
	return NewList(out...)
}

func sqlCellValue(e *Evaluator, cell interface{}) (Value, *Error) {
	switch v := cell.(type) {
	case nil:
		return NIL, nil
	case []byte:
		return &String{Value: string(v)}, nil
	}
	out, err := goToValue(e, cell)
	if err != nil {
		return nil, newKindError(ErrIO, "sql/query: %s", err.Error())
	}
	return out, nil
}

// sql/exec returns {:rows-affected n :last-insert-id id}.
func biSQLExec(e *Evaluator, args []Value) Value {
	if len(args) < 2 {
		return newKindError(ErrArgCount, "sql/exec needs a handle, a statement string and optional parameters")
	}
	db, err := sqlConn(e, "sql/exec", args[0])
	if err != nil {
		return err
	}
	stmt, ok := args[1].(*String)
	if !ok {
		return newKindError(ErrType, "sql/exec needs a string statement, got %s", args[1].Type())
	}
	params, err := sqlParams(args[2:])
	if err != nil {
		return err
	}
	res, xerr := db.Exec(stmt.Value, params...)
	if xerr != nil {
		return newKindError(ErrIO, "sql/exec: %s", xerr.Error())
	}
	affected, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()
	m := EmptyMap().
		Put(e.KeywordVal("rows-affected"), &Integer{Value: affected}).
		Put(e.KeywordVal("last-insert-id"), &Integer{Value: lastID})
	return &Map{Entries: m}
}

func biSQLClose(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "sql/close needs exactly one handle")
	}
	u, ok := args[0].(*Uvar)
	if !ok {
		return newKindError(ErrType, "sql/close needs a database handle, got %s", args[0].Type())
	}
	r, ok := e.handles.drop(u)
	if !ok {
		return NIL
	}
	if db, ok := r.(*sql.DB); ok {
		if cerr := db.Close(); cerr != nil {
			return newKindError(ErrIO, "sql/close: %s", cerr.Error())
		}
	}
	return NIL
}

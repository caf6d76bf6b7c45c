package evaluator

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"wisp/internal/object"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// dbRegistry holds one evaluator's connections and open transactions,
// keyed by the id returned from db-open; a transaction shadows its
// connection until commit or rollback. Each evaluator owns its own
// registry, so handles never leak across instances.
type dbRegistry struct {
	mu    sync.Mutex
	conns map[int64]*sql.DB
	txs   map[int64]*sql.Tx
}

func newDbRegistry() *dbRegistry {
	return &dbRegistry{
		conns: map[int64]*sql.DB{},
		txs:   map[int64]*sql.Tx{},
	}
}

func registerDb(env *object.Environment, reg *dbRegistry) {
	def(env, "db-open", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "db-open", args, 2); err != nil {
			return err
		}
		driver, ok := args[0].(*object.String)
		if !ok {
			return ctx.NewError(object.TypeError,
				"db-open requires a driver name string, got %s", args[0].Type())
		}
		dsn, ok := args[1].(*object.String)
		if !ok {
			return ctx.NewError(object.TypeError,
				"db-open requires a connection string, got %s", args[1].Type())
		}

		db, oerr := sql.Open(driver.Value, dsn.Value)
		if oerr != nil {
			return ctx.NewError(object.TypeError, "failed to open connection: %v", oerr)
		}
		if perr := db.Ping(); perr != nil {
			db.Close()
			return ctx.NewError(object.TypeError, "failed to ping database: %v", perr)
		}

		id := ctx.NextHandleID()
		reg.mu.Lock()
		reg.conns[id] = db
		reg.mu.Unlock()
		return &object.Integer{Value: id}
	})

	def(env, "db-query", func(ctx object.CallContext, args ...object.Object) object.Object {
		id, query, params, err := dbCallArgs(ctx, "db-query", args)
		if err != nil {
			return err
		}
		reg.mu.Lock()
		db, ok := reg.conns[id]
		tx, isTx := reg.txs[id]
		reg.mu.Unlock()
		if !ok {
			return ctx.NewError(object.TypeError, "invalid connection handle: %d", id)
		}

		var rows *sql.Rows
		var qerr error
		if isTx {
			rows, qerr = tx.Query(query, params...)
		} else {
			rows, qerr = db.Query(query, params...)
		}
		if qerr != nil {
			return ctx.NewError(object.TypeError, "query failed: %v", qerr)
		}
		defer rows.Close()
		return renderRows(ctx, rows)
	})

	def(env, "db-exec", func(ctx object.CallContext, args ...object.Object) object.Object {
		id, query, params, err := dbCallArgs(ctx, "db-exec", args)
		if err != nil {
			return err
		}
		reg.mu.Lock()
		db, ok := reg.conns[id]
		tx, isTx := reg.txs[id]
		reg.mu.Unlock()
		if !ok {
			return ctx.NewError(object.TypeError, "invalid connection handle: %d", id)
		}

		var result sql.Result
		var xerr error
		if isTx {
			result, xerr = tx.Exec(query, params...)
		} else {
			result, xerr = db.Exec(query, params...)
		}
		if xerr != nil {
			return ctx.NewError(object.TypeError, "exec failed: %v", xerr)
		}

		affected, _ := result.RowsAffected()
		lastID, _ := result.LastInsertId()
		out := &object.Map{}
		out.Put(&object.Keyword{Name: "rows-affected"}, &object.Integer{Value: affected})
		out.Put(&object.Keyword{Name: "last-insert-id"}, &object.Integer{Value: lastID})
		return out
	})

	def(env, "db-begin", func(ctx object.CallContext, args ...object.Object) object.Object {
		id, err := dbHandle(ctx, "db-begin", args)
		if err != nil {
			return err
		}
		reg.mu.Lock()
		db, ok := reg.conns[id]
		_, open := reg.txs[id]
		reg.mu.Unlock()
		if !ok {
			return ctx.NewError(object.TypeError, "invalid connection handle: %d", id)
		}
		if open {
			return ctx.NewError(object.TypeError, "transaction already open on handle %d", id)
		}
		tx, terr := db.Begin()
		if terr != nil {
			return ctx.NewError(object.TypeError, "failed to begin transaction: %v", terr)
		}
		reg.mu.Lock()
		reg.txs[id] = tx
		reg.mu.Unlock()
		return args[0]
	})

	def(env, "db-commit", func(ctx object.CallContext, args ...object.Object) object.Object {
		id, err := dbHandle(ctx, "db-commit", args)
		if err != nil {
			return err
		}
		reg.mu.Lock()
		tx, ok := reg.txs[id]
		delete(reg.txs, id)
		reg.mu.Unlock()
		if !ok {
			return ctx.NewError(object.TypeError, "no open transaction on handle %d", id)
		}
		if cerr := tx.Commit(); cerr != nil {
			return ctx.NewError(object.TypeError, "failed to commit transaction: %v", cerr)
		}
		return args[0]
	})

	def(env, "db-rollback", func(ctx object.CallContext, args ...object.Object) object.Object {
		id, err := dbHandle(ctx, "db-rollback", args)
		if err != nil {
			return err
		}
		reg.mu.Lock()
		tx, ok := reg.txs[id]
		delete(reg.txs, id)
		reg.mu.Unlock()
		if !ok {
			return ctx.NewError(object.TypeError, "no open transaction on handle %d", id)
		}
		if rerr := tx.Rollback(); rerr != nil {
			return ctx.NewError(object.TypeError, "failed to rollback transaction: %v", rerr)
		}
		return args[0]
	})

	def(env, "db-close", func(ctx object.CallContext, args ...object.Object) object.Object {
		id, err := dbHandle(ctx, "db-close", args)
		if err != nil {
			return err
		}
		reg.mu.Lock()
		tx, hasTx := reg.txs[id]
		db, hasDb := reg.conns[id]
		delete(reg.txs, id)
		delete(reg.conns, id)
		reg.mu.Unlock()
		if !hasDb && !hasTx {
			return ctx.NewError(object.TypeError, "invalid connection handle: %d", id)
		}
		if hasTx {
			tx.Rollback()
		}
		if hasDb {
			db.Close()
		}
		return object.NIL
	})
}

func dbHandle(ctx object.CallContext, name string, args []object.Object) (int64, *object.Error) {
	if err := exactly(ctx, name, args, 1); err != nil {
		return 0, err
	}
	id, ok := args[0].(*object.Integer)
	if !ok {
		return 0, ctx.NewError(object.TypeError,
			"%s requires a connection handle, got %s", name, args[0].Type())
	}
	return id.Value, nil
}

func dbCallArgs(ctx object.CallContext, name string, args []object.Object) (int64, string, []interface{}, *object.Error) {
	if len(args) < 2 {
		return 0, "", nil, ctx.NewError(object.ArityError,
			"wrong number of arguments. got=%d, want at least 2", len(args))
	}
	id, ok := args[0].(*object.Integer)
	if !ok {
		return 0, "", nil, ctx.NewError(object.TypeError,
			"%s requires a connection handle, got %s", name, args[0].Type())
	}
	query, ok := args[1].(*object.String)
	if !ok {
		return 0, "", nil, ctx.NewError(object.TypeError,
			"%s requires a query string, got %s", name, args[1].Type())
	}
	params := make([]interface{}, len(args)-2)
	for i, arg := range args[2:] {
		params[i] = bindValue(arg)
	}
	return id.Value, query.Value, params, nil
}

// bindValue maps a language value to a driver placeholder value.
func bindValue(o object.Object) interface{} {
	switch v := o.(type) {
	case *object.Nil:
		return nil
	case *object.Boolean:
		return v.Value
	case *object.Integer:
		return v.Value
	case *object.Float:
		return v.Value
	case *object.String:
		return v.Value
	case *object.Keyword:
		return v.Name
	}
	return o.Inspect()
}

// renderRows turns a result set into a list of maps, one per row, keyed
// by keywordized column name. Scan and iteration failures come back as
// in-band errors rather than truncated results.
func renderRows(ctx object.CallContext, rows *sql.Rows) object.Object {
	columns, cerr := rows.Columns()
	if cerr != nil {
		return ctx.NewError(object.TypeError, "query failed: %v", cerr)
	}
	var resultRows []object.Object

	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if serr := rows.Scan(pointers...); serr != nil {
			return ctx.NewError(object.TypeError, "row scan failed: %v", serr)
		}

		rowMap := &object.Map{}
		for i, col := range columns {
			rowMap.Put(&object.Keyword{Name: col}, columnValue(values[i]))
		}
		resultRows = append(resultRows, rowMap)
	}
	if ierr := rows.Err(); ierr != nil {
		return ctx.NewError(object.TypeError, "row iteration failed: %v", ierr)
	}
	return object.NewList(resultRows...)
}

func columnValue(v interface{}) object.Object {
	if v == nil {
		return object.NIL
	}
	switch x := v.(type) {
	case int64:
		return &object.Integer{Value: x}
	case float64:
		return &object.Float{Value: x}
	case []byte:
		return &object.String{Value: string(x)}
	case string:
		return &object.String{Value: x}
	case bool:
		return boolean(x)
	case time.Time:
		return &object.String{Value: x.Format(time.RFC3339)}
	}
	return &object.String{Value: fmt.Sprintf("%v", v)}
}

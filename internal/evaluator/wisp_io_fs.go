package evaluator

import (
	"os"

	"wisp/internal/object"
)

// File builtins. slurp/spit are whole-file operations; there are no open
// handles to leak, so no handle table is needed here.

func registerFs(env *object.Environment) {
	def(env, "slurp", func(ctx object.CallContext, args ...object.Object) object.Object {
		path, err := wantString(ctx, "slurp", args, 0, 1)
		if err != nil {
			return err
		}
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return ctx.NewError(object.TypeError, "failed to read file: %s", rerr)
		}
		return &object.String{Value: string(data)}
	})

	def(env, "spit", func(ctx object.CallContext, args ...object.Object) object.Object {
		if aerr := exactly(ctx, "spit", args, 2); aerr != nil {
			return aerr
		}
		path, ok := args[0].(*object.String)
		if !ok {
			return ctx.NewError(object.TypeError,
				"spit requires a string path, got %s", args[0].Type())
		}
		content, ok := args[1].(*object.String)
		if !ok {
			return ctx.NewError(object.TypeError,
				"spit requires string contents, got %s", args[1].Type())
		}
		if werr := os.WriteFile(path.Value, []byte(content.Value), 0644); werr != nil {
			return ctx.NewError(object.TypeError, "failed to write file: %s", werr)
		}
		return object.NIL
	})

	def(env, "append-file", func(ctx object.CallContext, args ...object.Object) object.Object {
		if aerr := exactly(ctx, "append-file", args, 2); aerr != nil {
			return aerr
		}
		path, ok := args[0].(*object.String)
		if !ok {
			return ctx.NewError(object.TypeError,
				"append-file requires a string path, got %s", args[0].Type())
		}
		content, ok := args[1].(*object.String)
		if !ok {
			return ctx.NewError(object.TypeError,
				"append-file requires string contents, got %s", args[1].Type())
		}
		f, oerr := os.OpenFile(path.Value, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
		if oerr != nil {
			return ctx.NewError(object.TypeError, "failed to open file: %s", oerr)
		}
		defer f.Close()
		n, werr := f.WriteString(content.Value)
		if werr != nil {
			return ctx.NewError(object.TypeError, "failed to append to file: %s", werr)
		}
		return &object.Integer{Value: int64(n)}
	})

	def(env, "file-exists?", func(ctx object.CallContext, args ...object.Object) object.Object {
		path, err := wantString(ctx, "file-exists?", args, 0, 1)
		if err != nil {
			return err
		}
		if _, serr := os.Stat(path); os.IsNotExist(serr) {
			return object.FALSE
		}
		return object.TRUE
	})

	def(env, "delete-file", func(ctx object.CallContext, args ...object.Object) object.Object {
		path, err := wantString(ctx, "delete-file", args, 0, 1)
		if err != nil {
			return err
		}
		if rerr := os.Remove(path); rerr != nil {
			return ctx.NewError(object.TypeError, "failed to remove file: %s", rerr)
		}
		return object.NIL
	})
}

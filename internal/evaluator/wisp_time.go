package evaluator

import (
	"time"

	"wisp/internal/object"
)

func registerTime(env *object.Environment) {
	def(env, "time-ms", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "time-ms", args, 0); err != nil {
			return err
		}
		return &object.Integer{Value: time.Now().UnixMilli()}
	})

	def(env, "sleep", func(ctx object.CallContext, args ...object.Object) object.Object {
		if err := exactly(ctx, "sleep", args, 1); err != nil {
			return err
		}
		ms, ok := args[0].(*object.Integer)
		if !ok {
			return ctx.NewError(object.TypeError,
				"sleep requires milliseconds as an integer, got %s", args[0].Type())
		}
		if ms.Value < 0 {
			return ctx.NewError(object.TypeError, "sleep requires a non-negative duration")
		}
		time.Sleep(time.Duration(ms.Value) * time.Millisecond)
		return object.NIL
	})
}

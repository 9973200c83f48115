package logsvc

import (
	"fmt"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/user"
)

type RollbarLogger struct {
	local *zap.SugaredLogger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(local *zap.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.ServerHost)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{local: local.Sugar()}
}

// NewLocal returns a zap logger named `name`: development (console) output in debug mode, production (JSON) otherwise.
func NewLocal(name string, conf *core.Config) (*zap.Logger, error) {
	if conf.Debug {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return l.Named(name), nil
	}
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return l.Named(name), nil
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l RollbarLogger) prepare(msg string, args []interface{}) (rbArgs []interface{}, fields []interface{}) {
	var usrSet bool
	rbArgs = make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User: // set logged in User
			if !usrSet { // only set one User
				rollbar.SetPerson(a.ID, a.Name, a.Email)
				fields = append(fields, "user", a.ID)
				usrSet = true
			}
		case error:
			rbArgs = append(rbArgs, a)
			fields = append(fields, "error", a)
		case map[string]interface{}:
			rbArgs = append(rbArgs, a)
			for k, v := range a {
				fields = append(fields, k, v)
			}
		default:
			rbArgs = append(rbArgs, a)
			fields = append(fields, "extra", fmt.Sprintf("%+v", a))
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return rbArgs, fields
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	l.local.Debugw(msg, fields...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	l.local.Infow(msg, fields...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	l.local.Warnw(msg, fields...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	l.local.Errorw(msg, fields...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	rollbar.Wait()
	l.local.Fatalw(msg, fields...)
}

// Sync flushes buffered local entries & pending rollbar items.
func (l RollbarLogger) Sync() {
	rollbar.Wait()
	_ = l.local.Sync()
}

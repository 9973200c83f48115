package main

import (
	"log"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/class"
	"github.com/trezcool/edportal/core/community"
	"github.com/trezcool/edportal/core/goal"
	"github.com/trezcool/edportal/core/resource"
	"github.com/trezcool/edportal/core/studygroup"
	"github.com/trezcool/edportal/core/user"
	logsvc "github.com/trezcool/edportal/services/logger"
	meetsvc "github.com/trezcool/edportal/services/meeting"
)

type StoreLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storeLogger"`
}

func newRollbarLogger(name string, conf *core.Config) (*logsvc.RollbarLogger, error) {
	local, err := logsvc.NewLocal(name, conf)
	if err != nil {
		return nil, errors.Wrap(err, "creating local logger")
	}
	logger := logsvc.NewRollbarLogger(local, conf)
	logger.Enable(!conf.Debug)
	return logger, nil
}

func newLogger(conf *core.Config) (core.Logger, error) {
	return newRollbarLogger("portal", conf)
}

func newStoreLogger(conf *core.Config) (core.Logger, error) {
	return newRollbarLogger("store", conf)
}

func newDB(conf *core.Config, param StoreLoggerParam) *DB {
	return NewDB(conf, param.Logger)
}

func newMeetingProvider(conf *core.Config, logger core.Logger) core.MeetingProvider {
	if conf.MeetingFail {
		return meetsvc.Failing{Err: errors.New("meeting provider unavailable")}
	}
	return meetsvc.NewStub(conf, logger)
}

func newIDGenerator() core.IDGenerator { return core.UUIDGenerator{} }

func newClock() core.Clock { return core.SystemClock }

// store accessors; services depend on the collection.Store interface only
func userStore(db *DB) user.Store { return db.Users }
func questionStore(db *DB) community.Store { return db.Questions }
func groupStore(db *DB) studygroup.Store { return db.Groups }
func classStore(db *DB) class.Store { return db.Classes }
func resourceStore(db *DB) resource.Store { return db.Resources }
func goalStore(db *DB) goal.Store { return db.Goals }

type cliParams struct {
	dig.In

	Conf      *core.Config
	Logger    core.Logger
	DB        *DB
	Users     *user.Service
	Questions *community.Service
	Groups    *studygroup.Service
	Classes   *class.Service
	Resources *resource.Service
	Goals     *goal.Service
	Now       core.Clock
}

func newCommandLine(p cliParams) *commandLine {
	return &commandLine{
		conf:      p.Conf,
		log:       p.Logger,
		db:        p.DB,
		users:     p.Users,
		questions: p.Questions,
		groups:    p.Groups,
		classes:   p.Classes,
		resources: p.Resources,
		goals:     p.Goals,
		now:       p.Now,
		timer:     NewTimer(p.Conf.Timer.Focus, p.Conf.Timer.Break),
	}
}

// NewContainer returns the dependency injection dig.Container of the portal.
func NewContainer(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStoreLogger, dig.Name("storeLogger")))
	must(c.Provide(core.NewValidator))
	must(c.Provide(newIDGenerator))
	must(c.Provide(newClock))
	must(c.Provide(newMeetingProvider))
	must(c.Provide(newDB))

	must(c.Provide(userStore))
	must(c.Provide(questionStore))
	must(c.Provide(groupStore))
	must(c.Provide(classStore))
	must(c.Provide(resourceStore))
	must(c.Provide(goalStore))

	must(c.Provide(user.NewService))
	must(c.Provide(community.NewService))
	must(c.Provide(studygroup.NewService))
	must(c.Provide(class.NewService))
	must(c.Provide(resource.NewService))
	must(c.Provide(goal.NewService))

	must(c.Provide(newCommandLine))
	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

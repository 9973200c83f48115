package main

import (
	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/class"
	"github.com/trezcool/edportal/core/collection"
	"github.com/trezcool/edportal/core/community"
	"github.com/trezcool/edportal/core/goal"
	"github.com/trezcool/edportal/core/resource"
	"github.com/trezcool/edportal/core/studygroup"
	"github.com/trezcool/edportal/core/user"
	"github.com/trezcool/edportal/storage/memstore"
)

// DB bundles one store per collection.
type DB struct {
	Users     *memstore.Store[user.User]
	Questions *memstore.Store[community.Question]
	Groups    *memstore.Store[studygroup.Group]
	Classes   *memstore.Store[class.Class]
	Resources *memstore.Store[resource.Resource]
	Goals     *memstore.Store[goal.Goal]
}

func NewDB(conf *core.Config, log core.Logger) *DB {
	opts := []memstore.Option{memstore.WithStrict(conf.Strict), memstore.WithLogger(log)}
	return &DB{
		Users:     memstore.New[user.User]("users", nil, opts...),
		Questions: memstore.New[community.Question]("questions", nil, opts...),
		Groups:    memstore.New[studygroup.Group]("groups", nil, opts...),
		Classes:   memstore.New[class.Class]("classes", nil, opts...),
		Resources: memstore.New[resource.Resource]("resources", nil, opts...),
		Goals:     memstore.New[goal.Goal]("goals", nil, opts...),
	}
}

// ChangeFunc is told which collection changed, its new version & size.
type ChangeFunc func(name string, version uint64, size int)

// Watch calls fn after every change of any collection until cancel is called.
func (db *DB) Watch(fn ChangeFunc) (cancel func()) {
	cancels := []func(){
		watch[user.User](db.Users, fn),
		watch[community.Question](db.Questions, fn),
		watch[studygroup.Group](db.Groups, fn),
		watch[class.Class](db.Classes, fn),
		watch[resource.Resource](db.Resources, fn),
		watch[goal.Goal](db.Goals, fn),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

func watch[T collection.Record](store collection.Store[T], fn ChangeFunc) func() {
	return store.Subscribe(func(snap collection.Snapshot[T]) {
		fn(store.Name(), snap.Version, snap.Len())
	})
}

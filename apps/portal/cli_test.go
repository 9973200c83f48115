package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/class"
	"github.com/trezcool/edportal/core/community"
	"github.com/trezcool/edportal/core/goal"
	"github.com/trezcool/edportal/core/resource"
	"github.com/trezcool/edportal/core/studygroup"
	"github.com/trezcool/edportal/core/user"
	meetsvc "github.com/trezcool/edportal/services/meeting"
	"github.com/trezcool/edportal/tests"
)

const seedPassword = "Masomo#2024"

// setup returns a seeded commandLine writing to the returned buffer.
// A nil meet uses the meeting stub.
func setup(t *testing.T, meet core.MeetingProvider) (*commandLine, *bytes.Buffer) {
	t.Helper()
	conf := testutil.Config()
	log := core.NopLogger{}
	if meet == nil {
		meet = meetsvc.NewStub(conf, log)
	}
	ids := core.NewSequenceGenerator("id")
	validate := core.NewValidator()
	now := core.FixedClock(testutil.Now)
	db := NewDB(conf, log)

	out := new(bytes.Buffer)
	cli := &commandLine{
		conf:      conf,
		log:       log,
		db:        db,
		now:       now,
		users:     user.NewService(db.Users, ids, validate, log, now),
		questions: community.NewService(db.Questions, ids, validate, log, now, conf),
		groups:    studygroup.NewService(db.Groups, ids, validate, log, now, conf),
		classes:   class.NewService(db.Classes, meet, ids, validate, log, conf),
		resources: resource.NewService(db.Resources, ids, validate, log, now, conf),
		goals:     goal.NewService(db.Goals, ids, log, now, conf),
		timer:     NewTimer(conf.Timer.Focus, conf.Timer.Break),
		out:       out,
	}
	cli.init()
	if err := seedDB(cli); err != nil {
		t.Fatalf("seedDB() failed: %v", err)
	}
	setPassword(seedPassword)
	return cli, out
}

func setPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
	wantOut    []string
}

func (tt cliTest) run(t *testing.T, cli *commandLine, out *bytes.Buffer) {
	t.Helper()
	if tt.pwd != "" {
		setPassword(tt.pwd)
		defer setPassword(seedPassword)
	}
	out.Reset()

	err := cli.run(append([]string{"portal"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err), "cli.run() error = %v", err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
	for _, want := range tt.wantOut {
		assert.Contains(t, out.String(), want)
	}
}

func groupID(t *testing.T, cli *commandLine, name string) string {
	t.Helper()
	for _, g := range cli.groups.QueryAll() {
		if g.Name == name {
			return g.ID
		}
	}
	t.Fatalf("no group %q", name)
	return ""
}

func questionID(t *testing.T, cli *commandLine, title string) string {
	t.Helper()
	for _, q := range cli.questions.QueryAll() {
		if q.Title == title {
			return q.ID
		}
	}
	t.Fatalf("no question %q", title)
	return ""
}

func Test_commandLine_run(t *testing.T) {
	cli, out := setup(t, nil)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "exit outside the shell", args: []string{"exit"}, wantErr: errHelp},
		{name: "flag help", args: []string{"classes", "-h"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"classes", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
		{name: "anonymous intent", args: []string{"addgoal", "-text", "Read"}, wantErr: errLoginRequired},
		{name: "whoami anonymous", args: []string{"whoami"}, wantErr: errLoginRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli, out) })
	}
}

func Test_commandLine_accounts(t *testing.T) {
	cli, out := setup(t, nil)
	testutil.CreateUser(t, cli.users, "Zawadi Teacher", "zawadi@masomo.cd", "Chalk&Board1", user.RoleTeacher)

	setPassword("")
	empty := cliTest{name: "register: empty password", args: []string{"register", "-name", "Neo", "-email", "neo@masomo.cd"}, wantErr: errHelp}
	t.Run(empty.name, func(t *testing.T) { empty.run(t, cli, out) })
	setPassword(seedPassword)

	tests := []cliTest{
		{name: "register: no args", args: []string{"register"}, wantErr: errHelp},
		{name: "register: weak password", args: []string{"register", "-name", "Neo", "-email", "neo@masomo.cd"}, pwd: "Ab1!", wantErrStr: "password must contain at least 8 characters"},
		{name: "register: bad role", args: []string{"register", "-name", "Neo", "-email", "neo@masomo.cd", "-role", "admin"}, pwd: "Sup3rSecret!", wantErrStr: "role must be one of [student teacher]"},
		{name: "register", args: []string{"register", "-name", "Neo", "-email", "neo@masomo.cd"}, pwd: "Sup3rSecret!", wantOut: []string{user.MsgRegistered}},
		{name: "whoami after register", args: []string{"whoami"}, wantOut: []string{"Neo <neo@masomo.cd> (student)"}},
		{name: "register: email taken", args: []string{"register", "-name", "Neo", "-email", "NEO@masomo.cd"}, pwd: "Sup3rSecret!", wantErrStr: user.MsgEmailTaken},
		{name: "logout", args: []string{"logout"}, wantOut: []string{"Logged out"}},
		{name: "login: no email", args: []string{"login"}, wantErr: errHelp},
		{name: "login: wrong password", args: []string{"login", "-email", "neo@masomo.cd"}, pwd: "nope", wantErrStr: user.MsgInvalidCredentials},
		{name: "login", args: []string{"login", "-email", "sarah@masomo.cd"}, wantOut: []string{user.MsgLoggedIn}},
		{name: "whoami", args: []string{"whoami"}, wantOut: []string{"Sarah Johnson <sarah@masomo.cd> (teacher)"}},
		{name: "login as another user", args: []string{"login", "-email", "zawadi@masomo.cd"}, pwd: "Chalk&Board1", wantOut: []string{user.MsgLoggedIn}},
		{name: "whoami switched", args: []string{"whoami"}, wantOut: []string{"Zawadi Teacher <zawadi@masomo.cd> (teacher)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli, out) })
	}
}

func Test_commandLine_groups(t *testing.T) {
	cli, out := setup(t, nil)
	calculus := groupID(t, cli, "Advanced Calculus Group")
	physics := groupID(t, cli, "Physics Study Circle")

	tests := []cliTest{
		{name: "list", args: []string{"groups"}, wantOut: []string{"Advanced Calculus Group", "2/15", "Physics Study Circle", "2/10"}},
		{name: "search", args: []string{"groups", "-search", "circle"}, wantOut: []string{"Physics Study Circle"}},
		{name: "no match", args: []string{"groups", "-subject", "chemistry"}, wantOut: []string{"No study groups found"}},
		{name: "join: no id", args: []string{"join"}, wantErr: errHelp},
		{name: "join", args: []string{"join", "-as", "chausiku@masomo.cd", "-id", calculus}, wantOut: []string{"Joined Advanced Calculus Group (3/15, joined)"}},
		{name: "join twice", args: []string{"join", "-id", calculus}, wantOut: []string{"Nothing changed"}},
		{name: "joined", args: []string{"groups", "-status", "joined"}, wantOut: []string{"Advanced Calculus Group", "Physics Study Circle"}},
		{name: "leave", args: []string{"leave", "-id", physics}, wantOut: []string{"Left Physics Study Circle (1/10, open)"}},
		{name: "leave unknown", args: []string{"leave", "-id", "404"}, wantOut: []string{"Nothing changed"}},
		{name: "addgroup: invalid", args: []string{"addgroup", "-name", "Duo", "-subject", "Math"}, wantErrStr: "max_members is required"},
		{name: "addgroup", args: []string{"addgroup", "-name", "Duo", "-subject", "Math", "-max", "1"}, wantOut: []string{"Study group created"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli, out) })
	}

	duo := groupID(t, cli, "Duo")
	full := cliTest{name: "join a full group", args: []string{"join", "-as", "amani@masomo.cd", "-id", duo}, wantErr: studygroup.ErrGroupFull}
	t.Run(full.name, func(t *testing.T) { full.run(t, cli, out) })
	g, err := cli.groups.GetByID(duo)
	require.NoError(t, err)
	assert.Len(t, g.Members, 1)
}

func Test_commandLine_classes(t *testing.T) {
	cli, out := setup(t, nil)

	tests := []cliTest{
		{name: "list", args: []string{"classes"}, wantOut: []string{"Advanced Mathematics", "Physics Fundamentals", meetsvc.DefaultBaseURL}},
		{name: "status", args: []string{"classes", "-status", "upcoming"}, wantOut: []string{"Statistics Workshop"}},
		{name: "addclass: missing flags", args: []string{"addclass", "-name", "Chemistry"}, wantErr: errHelp},
		{name: "addclass: bad date", args: []string{"addclass", "-as", "david@masomo.cd", "-name", "Chemistry", "-subject", "Chemistry", "-date", "01/03/2024", "-time", "10:00"}, wantErrStr: "start_date does not match the 2006-01-02 format"},
		{name: "addclass", args: []string{"addclass", "-name", "Chemistry", "-subject", "Chemistry", "-date", "2024-03-11", "-time", "08:30"}, wantOut: []string{"Class created", meetsvc.DefaultBaseURL}},
		{name: "rmclass unknown", args: []string{"rmclass", "-id", "404"}, wantOut: []string{"Nothing changed"}},
		{name: "analytics", args: []string{"analytics"}, wantOut: []string{"Students", "56", "4 (3 active)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli, out) })
	}

	classes := cli.classes.List(class.QueryFilter{Search: "chemistry"})
	require.Len(t, classes, 1)
	chem := classes[0]

	tests = []cliTest{
		{name: "reschedule", args: []string{"reschedule", "-id", chem.ID, "-date", "2024-03-12", "-time", "09:00"}, wantOut: []string{"Class rescheduled: Chemistry on Tue 12 Mar 09:00"}},
		{name: "rmclass", args: []string{"rmclass", "-id", chem.ID}, wantOut: []string{"Class removed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli, out) })
	}
	_, err := cli.classes.GetByID(chem.ID)
	assert.Equal(t, class.ErrNotFound, err)
}

func Test_commandLine_addclass_meetingFails(t *testing.T) {
	cli, out := setup(t, nil)
	before := len(cli.classes.QueryAll())

	failing := *cli
	failing.classes = class.NewService(cli.db.Classes, meetsvc.Failing{Err: errors.New("calendar down")},
		core.NewSequenceGenerator("c"), core.NewValidator(), core.NopLogger{}, cli.conf)

	tt := cliTest{
		args:       []string{"addclass", "-as", "david@masomo.cd", "-name", "Chemistry", "-subject", "Chemistry", "-date", "2024-03-11", "-time", "08:30"},
		wantErrStr: "creating meet session: calendar down",
	}
	tt.run(t, &failing, out)
	assert.Len(t, cli.classes.QueryAll(), before, "nothing is stored")
}

func Test_commandLine_resources(t *testing.T) {
	cli, out := setup(t, nil)
	cheatSheet := cli.resources.List(resource.QueryFilter{Search: "cheat"})[0]

	tests := []cliTest{
		{name: "list", args: []string{"resources"}, wantOut: []string{"Calculus Cheat Sheet", "PDF", "2.5 MB", "Newton's Laws Explained"}},
		{name: "type", args: []string{"resources", "-type", "video"}, wantOut: []string{"Newton's Laws Explained"}},
		{name: "download", args: []string{"download", "-id", cheatSheet.ID}, wantOut: []string{"Downloaded Calculus Cheat Sheet (121 downloads)"}},
		{name: "download unknown", args: []string{"download", "-id", "404"}, wantOut: []string{"Nothing changed"}},
		{name: "rate: out of range", args: []string{"rate", "-id", cheatSheet.ID, "-stars", "6"}, wantErrStr: resource.ErrInvalidRating.Error()},
		{name: "rate", args: []string{"rate", "-id", cheatSheet.ID, "-stars", "2"}, wantOut: []string{"rated 4.0 (4 ratings)"}},
		{name: "popular", args: []string{"popular", "-limit", "1"}, wantOut: []string{"1. Calculus Cheat Sheet (121 downloads)"}},
		{name: "addresource", args: []string{"addresource", "-as", "sarah@masomo.cd", "-title", "Algebra Drills", "-subject", "Mathematics", "-file", "drills.xlsx", "-size", "2048"}, wantOut: []string{"Resource added", "Spreadsheet"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli, out) })
	}
}

func Test_commandLine_community(t *testing.T) {
	cli, out := setup(t, nil)
	limits := questionID(t, cli, "How do I evaluate limits at infinity?")

	tests := []cliTest{
		{name: "list", args: []string{"questions"}, wantOut: []string{"How do I evaluate limits at infinity?", "by Amani Mwamba, Just now", "1 answer", "2 likes", "#calculus #limits"}},
		{name: "tag", args: []string{"questions", "-tag", "physics"}, wantOut: []string{"Difference between mass and weight?"}},
		{name: "no match", args: []string{"questions", "-search", "chemistry"}, wantOut: []string{"No questions found"}},
		{name: "ask: invalid", args: []string{"ask", "-as", "amani@masomo.cd", "-title", "<i></i>", "-content", "why?"}, wantErrStr: "title is required"},
		{name: "ask", args: []string{"ask", "-title", "Integration by parts?", "-content", "When should I use it?", "-tags", "calculus,integrals"}, wantOut: []string{"Question posted"}},
		{name: "answer", args: []string{"answer", "-id", limits, "-content", "Thanks!"}, wantOut: []string{"Answer posted"}},
		{name: "answer unknown", args: []string{"answer", "-id", "404", "-content", "lost"}, wantOut: []string{"Nothing changed"}},
		{name: "like own question", args: []string{"like", "-id", limits}, wantOut: []string{"Liked", "3 likes"}},
		{name: "like again", args: []string{"like", "-id", limits}, wantOut: []string{"Nothing changed"}},
		{name: "trending", args: []string{"trending", "-limit", "1"}, wantOut: []string{"1. #calculus (3 questions)"}},
		{name: "leaderboard", args: []string{"leaderboard", "-limit", "1"}, wantOut: []string{"1st", "Amani Mwamba", "28"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli, out) })
	}
}

func Test_commandLine_goals(t *testing.T) {
	cli, out := setup(t, nil)

	tests := []cliTest{
		{name: "none", args: []string{"goals", "-as", "amani@masomo.cd"}, wantOut: []string{"No goals yet"}},
		{name: "add blank", args: []string{"addgoal", "-text", "  "}, wantErrStr: "goal cannot be blank"},
		{name: "add", args: []string{"addgoal", "-text", "Finish chapter 3"}, wantOut: []string{"Goal added"}},
		{name: "add another", args: []string{"addgoal", "-text", "Revise algebra"}, wantOut: []string{"Goal added"}},
		{name: "toggle unknown", args: []string{"togglegoal", "-id", "404"}, wantOut: []string{"Nothing changed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli, out) })
	}

	actor, _ := cli.users.CurrentActor()
	goals := cli.goals.List(actor)
	require.Len(t, goals, 2)

	tests = []cliTest{
		{name: "toggle", args: []string{"togglegoal", "-id", goals[0].ID}, wantOut: []string{"Finish chapter 3 is completed"}},
		{name: "progress", args: []string{"goals"}, wantOut: []string{"[x] Finish chapter 3", "[ ] Revise algebra", "Progress: 50%"}},
		{name: "rmgoal", args: []string{"rmgoal", "-id", goals[1].ID}, wantOut: []string{"Goal deleted"}},
		{name: "rmgoal again", args: []string{"rmgoal", "-id", goals[1].ID}, wantOut: []string{"Nothing changed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli, out) })
	}
}

func Test_commandLine_timer(t *testing.T) {
	cli, out := setup(t, nil)

	tests := []cliTest{
		{name: "status", args: []string{"timer"}, wantOut: []string{"25:00 Focus Time (paused, 0 sessions done)"}},
		{name: "toggle", args: []string{"timer", "toggle"}, wantOut: []string{"running"}},
		{name: "tick", args: []string{"timer", "tick", "90"}, wantOut: []string{"23:30 Focus Time"}},
		{name: "bad tick", args: []string{"timer", "tick", "-1"}, wantErrStr: "tick expects a positive number of seconds"},
		{name: "finish focus", args: []string{"timer", "tick", "5000"}, wantOut: []string{"Break Time!", "05:00 Break Time (paused, 1 session done)"}},
		{name: "reset", args: []string{"timer", "reset"}, wantOut: []string{"05:00 Break Time"}},
		{name: "unknown", args: []string{"timer", "lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli, out) })
	}
}

func Test_commandLine_shell(t *testing.T) {
	cli, out := setup(t, nil)
	cli.conf.Debug = true // change notices
	cli.in = strings.NewReader(strings.Join([]string{
		"login -email amani@masomo.cd",
		"",
		"whoami",
		"addgoal -text Read",
		`ask -title "How do limits work" -content 'Explain epsilon delta' -tags "calculus, #limits"`,
		`ask -title "unterminated`,
		"bogus",
		"shell",
		"exit",
		"whoami", // never read
	}, "\n"))

	err := cli.run([]string{"portal", "shell"})
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, user.MsgLoggedIn)
	assert.Contains(t, got, "Amani Mwamba >")
	assert.Contains(t, got, "Amani Mwamba <amani@masomo.cd> (student)")
	assert.Contains(t, got, "· goals changed (v1, 1 records)")
	assert.Contains(t, got, "Usage:")
	assert.Contains(t, got, "error: parsing command")
	assert.Contains(t, got, "error: "+errNestedShell.Error())

	questions := cli.questions.QueryAll()
	require.Len(t, questions, 4, "quoted arguments stay whole")
	assert.Equal(t, "How do limits work", questions[0].Title)
	assert.Equal(t, "Explain epsilon delta", questions[0].Content)
	assert.Equal(t, []string{"calculus", "limits"}, questions[0].Tags)
	assert.Contains(t, got, "bye")
	assert.Equal(t, 1, strings.Count(got, "(student)"), "commands after exit are not run")
	assert.False(t, cli.inShell)
}

func Test_commandLine_shell_EOF(t *testing.T) {
	cli, _ := setup(t, nil)
	cli.in = strings.NewReader("groups")
	assert.NoError(t, cli.run([]string{"portal", "shell"}))
}

func TestNewContainer(t *testing.T) {
	conf := testutil.Config()
	conf.Debug = true
	c := NewContainer(func() *core.Config { return conf })

	err := c.Invoke(func(cli *commandLine, meet core.MeetingProvider) {
		assert.NotNil(t, cli.users)
		assert.NotNil(t, cli.goals)
		assert.Equal(t, 25*time.Minute, cli.timer.Remaining())
		assert.IsType(t, &meetsvc.Stub{}, meet)
	})
	require.NoError(t, err)

	conf.MeetingFail = true
	c = NewContainer(func() *core.Config { return conf })
	require.NoError(t, c.Invoke(func(meet core.MeetingProvider) {
		assert.IsType(t, meetsvc.Failing{}, meet)
	}))
}

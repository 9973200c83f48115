package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/labstack/gommon/color"
	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/class"
	"github.com/trezcool/edportal/core/community"
	"github.com/trezcool/edportal/core/goal"
	"github.com/trezcool/edportal/core/resource"
	"github.com/trezcool/edportal/core/studygroup"
	"github.com/trezcool/edportal/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp          = errors.New("help provided")
	errLoginRequired = errors.New("login required: run `login` first or pass -as EMAIL")
	errNestedShell   = errors.New("already in the shell")
)

type commandLine struct {
	conf *core.Config
	log  core.Logger
	db   *DB
	now  core.Clock

	users     *user.Service
	questions *community.Service
	groups    *studygroup.Service
	classes   *class.Service
	resources *resource.Service
	goals     *goal.Service
	timer     *Timer

	out     io.Writer
	in      io.Reader
	color   *color.Color
	inShell bool
}

// init sets the I/O defaults of a commandLine built without them.
func (cli *commandLine) init() {
	if cli.out == nil {
		cli.out = os.Stdout
	}
	if cli.in == nil {
		cli.in = os.Stdin
	}
	if cli.color == nil {
		cli.color = color.New()
		if cli.conf.TestMode {
			cli.color.Disable()
		}
	}
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	for _, line := range []string{
		"  register -name NAME -email EMAIL [-role student|teacher]   - create an account (password prompted)",
		"  login -email EMAIL                                         - sign in (password prompted)",
		"  logout | whoami",
		"  classes [-search S] [-status active|completed|upcoming]   - list classes",
		"  addclass -name N -subject S -date YYYY-MM-DD -time HH:MM [-duration MIN] [-schedule S] [-desc D]",
		"  reschedule -id ID -date YYYY-MM-DD -time HH:MM [-duration MIN]",
		"  rmclass -id ID",
		"  groups [-search S] [-subject S] [-status open|joined|full] - list study groups",
		"  addgroup -name N -subject S -max N [-desc D]",
		"  join -id ID | leave -id ID",
		"  resources [-search S] [-type T] [-status published|draft] [-access free|premium]",
		"  addresource -title T -subject S [-file NAME -size BYTES] [-access free|premium] [-price P]",
		"  download -id ID | rate -id ID -stars 1..5 | popular [-limit N]",
		"  questions [-search S] [-tag T]",
		"  ask -title T -content C [-tags a,b]",
		"  answer -id ID -content C | like -id ID",
		"  trending [-limit N] | leaderboard [-limit N]",
		"  goals | addgoal -text T | togglegoal -id ID | rmgoal -id ID",
		"  analytics                                                  - class & resource figures",
		"  timer [toggle|reset|tick N]                                - study timer",
		"  shell                                                      - interactive session",
		"",
		"Commands acting on behalf of a user accept -as EMAIL to sign in first.",
	} {
		cli.printf("%s\n", line)
	}
}

func (cli *commandLine) run(args []string) error {
	cli.init()
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "register":
		return cli.register(rest)
	case "login":
		return cli.login(rest)
	case "logout":
		cli.users.Logout()
		cli.printf("%s\n", cli.color.Green("Logged out"))
		return nil
	case "whoami":
		return cli.whoami()
	case "classes":
		return cli.listClasses(rest)
	case "addclass":
		return cli.addClass(rest)
	case "reschedule":
		return cli.rescheduleClass(rest)
	case "rmclass":
		return cli.removeClass(rest)
	case "groups":
		return cli.listGroups(rest)
	case "addgroup":
		return cli.addGroup(rest)
	case "join":
		return cli.joinGroup(rest)
	case "leave":
		return cli.leaveGroup(rest)
	case "resources":
		return cli.listResources(rest)
	case "addresource":
		return cli.addResource(rest)
	case "download":
		return cli.downloadResource(rest)
	case "rate":
		return cli.rateResource(rest)
	case "popular":
		return cli.popularResources(rest)
	case "questions":
		return cli.listQuestions(rest)
	case "ask":
		return cli.ask(rest)
	case "answer":
		return cli.answer(rest)
	case "like":
		return cli.like(rest)
	case "trending":
		return cli.trending(rest)
	case "leaderboard":
		return cli.leaderboard(rest)
	case "goals":
		return cli.listGoals(rest)
	case "addgoal":
		return cli.addGoal(rest)
	case "togglegoal":
		return cli.toggleGoal(rest)
	case "rmgoal":
		return cli.removeGoal(rest)
	case "analytics":
		return cli.analytics()
	case "timer":
		return cli.runTimer(rest)
	case "shell":
		return cli.shell()
	case "exit", "quit":
		if cli.inShell {
			return core.NewShutdownError("bye")
		}
		cli.printUsage()
		return errHelp
	default:
		cli.printUsage()
		return errHelp
	}
}

// shell runs commands read from cli.in, one per line, until `exit` or EOF.
func (cli *commandLine) shell() error {
	if cli.inShell {
		return errNestedShell
	}
	cli.inShell = true
	defer func() { cli.inShell = false }()

	if cli.conf.Debug {
		cancel := cli.db.Watch(func(name string, version uint64, size int) {
			cli.printf("%s\n", cli.color.Grey(fmt.Sprintf("· %s changed (v%d, %d records)", name, version, size)))
		})
		defer cancel()
	}

	scanner := bufio.NewScanner(cli.in)
	for {
		cli.printf("%s ", cli.color.Cyan(cli.prompt()))
		if !scanner.Scan() {
			cli.printf("\n")
			return scanner.Err()
		}
		err := cli.runLine(scanner.Text())
		switch {
		case err == nil, err == errHelp:
		case core.IsShutdown(err):
			cli.printf("%s\n", err)
			return nil
		default:
			cli.printf("%s\n", cli.color.Red("error: "+err.Error()))
		}
	}
}

// runLine splits line the way a shell would, honouring quotes & escapes, then runs it.
func (cli *commandLine) runLine(line string) error {
	args, err := shellwords.Parse(line)
	if err != nil {
		return errors.Wrap(err, "parsing command")
	}
	if len(args) == 0 {
		return nil
	}
	return cli.run(append([]string{"portal"}, args...))
}

func (cli *commandLine) prompt() string {
	if usr, ok := cli.users.Current(); ok {
		return usr.Name + " >"
	}
	return ">"
}

func (cli *commandLine) printf(format string, a ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, a...)
}

func (cli *commandLine) table() *tabwriter.Writer {
	return tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

// usage prints the flags of fs and returns errHelp.
func usage(fs *flag.FlagSet) error {
	fs.Usage()
	return errHelp
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	cli.printf("%s", prompt)
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	cli.printf("\n")
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

// result prints res; a failed Result is returned as an error.
func (cli *commandLine) result(res core.Result) error {
	if !res.Success {
		return errors.New(res.Message)
	}
	cli.printf("%s\n", cli.color.Green(res.Message))
	return nil
}

// actor returns the signed in user, signing in as `email` first if set.
func (cli *commandLine) actor(email string) (core.Actor, error) {
	if email != "" {
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return core.Actor{}, err
		}
		if err := cli.result(cli.users.Login(email, pwd)); err != nil {
			return core.Actor{}, err
		}
	}
	if a, ok := cli.users.CurrentActor(); ok {
		return a, nil
	}
	return core.Actor{}, errLoginRequired
}

// userError turns validation errors into their user facing message.
func userError(err error) error {
	if vErr, ok := core.IsValidationError(err); ok {
		return errors.New(vErr.Message())
	}
	return err
}

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/class"
	"github.com/trezcool/edportal/core/community"
	"github.com/trezcool/edportal/core/resource"
	"github.com/trezcool/edportal/core/studygroup"
	"github.com/trezcool/edportal/core/user"
)

const meetTimeout = 10 * time.Second

// Accounts

func (cli *commandLine) register(args []string) error {
	fs := cli.flagSet("register")
	name := fs.String("name", "", "Your full name.")
	email := fs.String("email", "", "Your email. The password will be prompted next.")
	role := fs.String("role", user.RoleStudent, "student or teacher.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *name == "" || *email == "" {
		return usage(fs)
	}

	pwd, err := cli.readPassword("Enter password:")
	if err != nil {
		return err
	}
	if pwd == "" {
		return usage(fs)
	}
	res, _ := cli.users.Register(user.NewUser{Name: *name, Email: *email, Password: pwd, Role: *role})
	return cli.result(res)
}

func (cli *commandLine) login(args []string) error {
	fs := cli.flagSet("login")
	email := fs.String("email", "", "Your email. The password will be prompted next.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		return usage(fs)
	}

	pwd, err := cli.readPassword("Enter password:")
	if err != nil {
		return err
	}
	return cli.result(cli.users.Login(*email, pwd))
}

func (cli *commandLine) whoami() error {
	usr, ok := cli.users.Current()
	if !ok {
		return errLoginRequired
	}
	cli.printf("%s <%s> (%s)\n", usr.Name, usr.Email, usr.Role)
	return nil
}

// Classes

func (cli *commandLine) listClasses(args []string) error {
	fs := cli.flagSet("classes")
	search := fs.String("search", "", "Match on name or subject.")
	status := fs.String("status", "", "active, completed, upcoming or all.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}

	classes := cli.classes.List(class.QueryFilter{Search: *search, Status: *status})
	if len(classes) == 0 {
		cli.printf("No classes found\n")
		return nil
	}
	tw := cli.table()
	fmt.Fprintln(tw, "ID\tNAME\tSUBJECT\tSTATUS\tNEXT CLASS\tSTUDENTS\tMEET")
	for _, c := range classes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			c.ID, c.Name, c.Subject, c.Status, c.NextClass.Format("Mon 02 Jan 15:04"), c.Students, c.MeetLink)
	}
	return tw.Flush()
}

func (cli *commandLine) addClass(args []string) error {
	fs := cli.flagSet("addclass")
	as := fs.String("as", "", "Sign in as this email first.")
	name := fs.String("name", "", "Class name.")
	subject := fs.String("subject", "", "Subject taught.")
	schedule := fs.String("schedule", "", "Recurring schedule, eg. \"Mon, Wed 10:00\".")
	date := fs.String("date", "", "First session date (YYYY-MM-DD).")
	clock := fs.String("time", "", "First session time (HH:MM).")
	duration := fs.Int("duration", 60, "Session length in minutes.")
	desc := fs.String("desc", "", "Description.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *name == "" || *subject == "" || *date == "" || *clock == "" {
		return usage(fs)
	}
	actor, err := cli.actor(*as)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), meetTimeout)
	defer cancel()
	cls, err := cli.classes.Create(ctx, actor, class.NewClass{
		Name: *name, Subject: *subject, Schedule: *schedule, StartDate: *date, StartTime: *clock,
		Duration: *duration, Description: *desc,
	})
	if err != nil {
		return userError(err)
	}
	cli.printf("%s %s\n  meet: %s\n", cli.color.Green("Class created:"), cls.ID, cls.MeetLink)
	return nil
}

func (cli *commandLine) rescheduleClass(args []string) error {
	fs := cli.flagSet("reschedule")
	as := fs.String("as", "", "Sign in as this email first.")
	id := fs.String("id", "", "Class ID.")
	date := fs.String("date", "", "New date (YYYY-MM-DD).")
	clock := fs.String("time", "", "New time (HH:MM).")
	duration := fs.Int("duration", 0, "New length in minutes; 0 keeps the current one.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *id == "" || *date == "" || *clock == "" {
		return usage(fs)
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", *date+" "+*clock, time.UTC)
	if err != nil {
		return errors.New("date and time must look like 2024-03-01 and 10:00")
	}
	actor, err := cli.actor(*as)
	if err != nil {
		return err
	}
	if *duration == 0 {
		cur, err := cli.classes.GetByID(*id)
		if err != nil {
			return cli.unchanged("no class " + *id)
		}
		*duration = cur.Duration
	}

	ctx, cancel := context.WithTimeout(context.Background(), meetTimeout)
	defer cancel()
	cls, ok, err := cli.classes.Reschedule(ctx, actor, *id, start, *duration)
	if err != nil {
		return userError(err)
	}
	if !ok {
		return cli.unchanged("no class " + *id)
	}
	cli.printf("%s %s on %s\n", cli.color.Green("Class rescheduled:"), cls.Name, cls.NextClass.Format("Mon 02 Jan 15:04"))
	return nil
}

func (cli *commandLine) removeClass(args []string) error {
	fs := cli.flagSet("rmclass")
	id := fs.String("id", "", "Class ID.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return usage(fs)
	}

	ctx, cancel := context.WithTimeout(context.Background(), meetTimeout)
	defer cancel()
	removed, err := cli.classes.Remove(ctx, *id)
	if err != nil {
		return err
	}
	if !removed {
		return cli.unchanged("no class " + *id)
	}
	cli.printf("%s\n", cli.color.Green("Class removed"))
	return nil
}

// Study groups

func (cli *commandLine) listGroups(args []string) error {
	fs := cli.flagSet("groups")
	search := fs.String("search", "", "Match on name, subject or description.")
	subject := fs.String("subject", "", "Subject.")
	status := fs.String("status", "", "open, joined, full or all.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}

	actor, _ := cli.users.CurrentActor()
	groups := cli.groups.List(actor, studygroup.QueryFilter{Search: *search, Subject: *subject, Status: *status})
	if len(groups) == 0 {
		cli.printf("No study groups found\n")
		return nil
	}
	tw := cli.table()
	fmt.Fprintln(tw, "ID\tNAME\tSUBJECT\tMEMBERS\tSTATUS\tNEXT MEETING")
	for _, g := range groups {
		next := "-"
		if !g.NextMeeting.IsZero() {
			next = g.NextMeeting.Format("Mon 02 Jan 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			g.ID, g.Name, g.Subject, len(g.Members), g.MaxMembers, g.StatusFor(actor.ID), next)
	}
	return tw.Flush()
}

func (cli *commandLine) addGroup(args []string) error {
	fs := cli.flagSet("addgroup")
	as := fs.String("as", "", "Sign in as this email first.")
	name := fs.String("name", "", "Group name.")
	subject := fs.String("subject", "", "Subject studied.")
	maxMembers := fs.Int("max", 0, "Maximum number of members.")
	desc := fs.String("desc", "", "Description.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *name == "" || *subject == "" {
		return usage(fs)
	}
	actor, err := cli.actor(*as)
	if err != nil {
		return err
	}

	g, err := cli.groups.Create(actor, studygroup.NewGroup{Name: *name, Subject: *subject, MaxMembers: *maxMembers, Description: *desc})
	if err != nil {
		return userError(err)
	}
	cli.printf("%s %s\n", cli.color.Green("Study group created:"), g.ID)
	return nil
}

func (cli *commandLine) joinGroup(args []string) error {
	return cli.groupMembership("join", args, cli.groups.Join, "Joined")
}

func (cli *commandLine) leaveGroup(args []string) error {
	return cli.groupMembership("leave", args, cli.groups.Leave, "Left")
}

func (cli *commandLine) groupMembership(cmd string, args []string,
	fn func(core.Actor, string) (studygroup.Group, bool, error), done string) error {
	fs := cli.flagSet(cmd)
	as := fs.String("as", "", "Sign in as this email first.")
	id := fs.String("id", "", "Study group ID.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return usage(fs)
	}
	actor, err := cli.actor(*as)
	if err != nil {
		return err
	}

	g, ok, err := fn(actor, *id)
	if err != nil {
		return err
	}
	if !ok {
		return cli.unchanged(fmt.Sprintf("nothing to %s for group %s", cmd, *id))
	}
	cli.printf("%s %s (%d/%d, %s)\n", cli.color.Green(done), g.Name, len(g.Members), g.MaxMembers, g.StatusFor(actor.ID))
	return nil
}

// Resources

func (cli *commandLine) listResources(args []string) error {
	fs := cli.flagSet("resources")
	search := fs.String("search", "", "Match on title or subject.")
	typ := fs.String("type", "", "PDF, Document, Video... or all.")
	status := fs.String("status", "", "published, draft or all.")
	access := fs.String("access", "", "free, premium or all.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}

	resources := cli.resources.List(resource.QueryFilter{Search: *search, Type: *typ, Status: *status, Access: *access})
	if len(resources) == 0 {
		cli.printf("No resources found\n")
		return nil
	}
	tw := cli.table()
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tSUBJECT\tACCESS\tDOWNLOADS\tRATING\tSIZE")
	for _, r := range resources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.1f\t%s\n",
			r.ID, r.Title, r.Type, r.Subject, r.Access, humanize.Comma(int64(r.Downloads)), r.Rating, r.FileSize)
	}
	return tw.Flush()
}

func (cli *commandLine) addResource(args []string) error {
	fs := cli.flagSet("addresource")
	as := fs.String("as", "", "Sign in as this email first.")
	title := fs.String("title", "", "Title.")
	subject := fs.String("subject", "", "Subject.")
	desc := fs.String("desc", "", "Description.")
	level := fs.String("level", "", "Beginner, Intermediate, Advanced...")
	file := fs.String("file", "", "File name; sets the type.")
	size := fs.Int64("size", 0, "File size in bytes.")
	access := fs.String("access", "", "free or premium.")
	price := fs.Float64("price", 0, "Price of premium resources.")
	draft := fs.Bool("draft", false, "Keep it unpublished.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *title == "" || *subject == "" {
		return usage(fs)
	}
	actor, err := cli.actor(*as)
	if err != nil {
		return err
	}

	nr := resource.NewResource{Title: *title, Subject: *subject, Description: *desc, Level: *level, Access: *access, Price: *price}
	if *draft {
		nr.Status = resource.StatusDraft
	}
	var res resource.Resource
	if *file != "" {
		res, err = cli.resources.AddFile(actor, nr, *file, *size)
	} else {
		res, err = cli.resources.Add(actor, nr)
	}
	if err != nil {
		return userError(err)
	}
	cli.printf("%s %s (%s)\n", cli.color.Green("Resource added:"), res.ID, res.Type)
	return nil
}

func (cli *commandLine) downloadResource(args []string) error {
	fs := cli.flagSet("download")
	id := fs.String("id", "", "Resource ID.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return usage(fs)
	}

	res, ok := cli.resources.RecordDownload(*id)
	if !ok {
		return cli.unchanged("no resource " + *id)
	}
	cli.printf("%s %s (%s downloads)\n", cli.color.Green("Downloaded"), res.Title, humanize.Comma(int64(res.Downloads)))
	return nil
}

func (cli *commandLine) rateResource(args []string) error {
	fs := cli.flagSet("rate")
	id := fs.String("id", "", "Resource ID.")
	stars := fs.Float64("stars", 0, "Rating from 1 to 5.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return usage(fs)
	}

	res, ok, err := cli.resources.Rate(*id, *stars)
	if err != nil {
		return userError(err)
	}
	if !ok {
		return cli.unchanged("no resource " + *id)
	}
	cli.printf("%s %s is now rated %.1f (%d ratings)\n", cli.color.Green("Rated:"), res.Title, res.Rating, res.Ratings)
	return nil
}

func (cli *commandLine) popularResources(args []string) error {
	fs := cli.flagSet("popular")
	limit := fs.Int("limit", 5, "How many to show.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}

	for _, r := range cli.resources.Popular(*limit) {
		cli.printf("%d. %s (%s downloads)\n", r.Rank, r.Item.Title, humanize.Comma(int64(r.Item.Downloads)))
	}
	return nil
}

// Community

func (cli *commandLine) listQuestions(args []string) error {
	fs := cli.flagSet("questions")
	search := fs.String("search", "", "Match on title, content or tags.")
	tag := fs.String("tag", "", "Tag.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}

	questions := cli.questions.List(community.QueryFilter{Search: *search, Tag: *tag})
	if len(questions) == 0 {
		cli.printf("No questions found\n")
		return nil
	}
	for _, q := range questions {
		cli.printf("[%s] %s\n", q.ID, cli.color.Blue(q.Title))
		cli.printf("  by %s, %s · %s · %s\n", q.Author.Name, cli.questions.TimeAgo(q),
			plural(q.Comments(), "answer"), plural(q.Likes, "like"))
		if len(q.Tags) > 0 {
			cli.printf("  #%s\n", strings.Join(q.Tags, " #"))
		}
		for _, a := range q.Answers {
			cli.printf("    > %s: %s\n", a.Author.Name, a.Content)
		}
	}
	return nil
}

func (cli *commandLine) ask(args []string) error {
	fs := cli.flagSet("ask")
	as := fs.String("as", "", "Sign in as this email first.")
	title := fs.String("title", "", "Question title.")
	content := fs.String("content", "", "Question details.")
	tags := fs.String("tags", "", "Comma separated tags.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *title == "" || *content == "" {
		return usage(fs)
	}
	actor, err := cli.actor(*as)
	if err != nil {
		return err
	}

	var tagList []string
	if *tags != "" {
		tagList = strings.Split(*tags, ",")
	}
	q, err := cli.questions.AddQuestion(actor, community.NewQuestion{Title: *title, Content: *content, Tags: tagList})
	if err != nil {
		return userError(err)
	}
	cli.printf("%s %s\n", cli.color.Green("Question posted:"), q.ID)
	return nil
}

func (cli *commandLine) answer(args []string) error {
	fs := cli.flagSet("answer")
	as := fs.String("as", "", "Sign in as this email first.")
	id := fs.String("id", "", "Question ID.")
	content := fs.String("content", "", "Your answer.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *id == "" || *content == "" {
		return usage(fs)
	}
	actor, err := cli.actor(*as)
	if err != nil {
		return err
	}

	_, ok, err := cli.questions.AddAnswer(actor, *id, community.NewAnswer{Content: *content})
	if err != nil {
		return userError(err)
	}
	if !ok {
		return cli.unchanged("no question " + *id)
	}
	cli.printf("%s\n", cli.color.Green("Answer posted"))
	return nil
}

func (cli *commandLine) like(args []string) error {
	fs := cli.flagSet("like")
	as := fs.String("as", "", "Sign in as this email first.")
	id := fs.String("id", "", "Question ID.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return usage(fs)
	}
	actor, err := cli.actor(*as)
	if err != nil {
		return err
	}

	q, ok, err := cli.questions.Like(actor, *id)
	if err != nil {
		return err
	}
	if !ok {
		return cli.unchanged("nothing to like")
	}
	cli.printf("%s %s (%s)\n", cli.color.Green("Liked"), q.Title, plural(q.Likes, "like"))
	return nil
}

func (cli *commandLine) trending(args []string) error {
	fs := cli.flagSet("trending")
	limit := fs.Int("limit", 5, "How many topics to show.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}

	for _, t := range cli.questions.TrendingTopics(*limit) {
		cli.printf("%d. #%s (%s)\n", t.Rank, t.Item.Name, plural(t.Item.Count, "question"))
	}
	return nil
}

func (cli *commandLine) leaderboard(args []string) error {
	fs := cli.flagSet("leaderboard")
	limit := fs.Int("limit", 10, "How many contributors to show.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}

	tw := cli.table()
	fmt.Fprintln(tw, "RANK\tNAME\tPOINTS\tQUESTIONS\tANSWERS\tLIKES")
	for _, c := range cli.questions.Leaderboard(*limit) {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", humanize.Ordinal(c.Rank), c.Item.Actor.Name,
			c.Item.Points, c.Item.Questions, c.Item.Answers, c.Item.Likes)
	}
	return tw.Flush()
}

// Goals

func (cli *commandLine) listGoals(args []string) error {
	fs := cli.flagSet("goals")
	as := fs.String("as", "", "Sign in as this email first.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	actor, err := cli.actor(*as)
	if err != nil {
		return err
	}

	goals := cli.goals.List(actor)
	if len(goals) == 0 {
		cli.printf("No goals yet\n")
		return nil
	}
	for _, g := range goals {
		box := "[ ]"
		if g.Completed {
			box = "[x]"
		}
		cli.printf("%s %s (%s)\n", box, g.Text, g.ID)
	}
	cli.printf("Progress: %.0f%%\n", cli.goals.Progress(actor)*100)
	return nil
}

func (cli *commandLine) addGoal(args []string) error {
	fs := cli.flagSet("addgoal")
	as := fs.String("as", "", "Sign in as this email first.")
	text := fs.String("text", "", "What you want to achieve.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	actor, err := cli.actor(*as)
	if err != nil {
		return err
	}

	g, err := cli.goals.Add(actor, *text)
	if err != nil {
		return userError(err)
	}
	cli.printf("%s %s\n", cli.color.Green("Goal added:"), g.ID)
	return nil
}

func (cli *commandLine) toggleGoal(args []string) error {
	fs := cli.flagSet("togglegoal")
	as := fs.String("as", "", "Sign in as this email first.")
	id := fs.String("id", "", "Goal ID.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return usage(fs)
	}
	actor, err := cli.actor(*as)
	if err != nil {
		return err
	}

	g, ok, err := cli.goals.Toggle(actor, *id)
	if err != nil {
		return err
	}
	if !ok {
		return cli.unchanged("no goal " + *id)
	}
	state := "open"
	if g.Completed {
		state = "completed"
	}
	cli.printf("%s %s is %s\n", cli.color.Green("Goal updated:"), g.Text, state)
	return nil
}

func (cli *commandLine) removeGoal(args []string) error {
	fs := cli.flagSet("rmgoal")
	as := fs.String("as", "", "Sign in as this email first.")
	id := fs.String("id", "", "Goal ID.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return usage(fs)
	}
	actor, err := cli.actor(*as)
	if err != nil {
		return err
	}

	deleted, err := cli.goals.Delete(actor, *id)
	if err != nil {
		return err
	}
	if !deleted {
		return cli.unchanged("no goal " + *id)
	}
	cli.printf("%s\n", cli.color.Green("Goal deleted"))
	return nil
}

// Dashboards

func (cli *commandLine) analytics() error {
	ca := cli.classes.Analytics(class.QueryFilter{})
	ra := cli.resources.Analytics(resource.QueryFilter{Status: resource.StatusPublished})

	tw := cli.table()
	fmt.Fprintf(tw, "Classes\t%d (%d active)\n", ca.TotalClasses, ca.Active)
	fmt.Fprintf(tw, "Students\t%s\n", humanize.Comma(int64(ca.TotalStudents)))
	fmt.Fprintf(tw, "Assignments\t%d\n", ca.TotalAssignments)
	fmt.Fprintf(tw, "Average completion\t%.1f%%\n", ca.AverageCompletion)
	fmt.Fprintf(tw, "Average score\t%.1f\n", ca.AverageScore)
	fmt.Fprintf(tw, "Resources\t%d (%d premium)\n", ra.TotalResources, ra.Premium)
	fmt.Fprintf(tw, "Downloads\t%s\n", humanize.Comma(int64(ra.TotalDownloads)))
	fmt.Fprintf(tw, "Views\t%s\n", humanize.Comma(int64(ra.TotalViews)))
	fmt.Fprintf(tw, "Average rating\t%.1f\n", ra.AverageRating)
	return tw.Flush()
}

func (cli *commandLine) runTimer(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "toggle":
			cli.timer.Toggle()
		case "reset":
			cli.timer.Reset()
		case "tick":
			n := 1
			if len(args) > 1 {
				var err error
				if n, err = strconv.Atoi(args[1]); err != nil || n < 1 {
					return errors.New("tick expects a positive number of seconds")
				}
			}
			for i := 0; i < n; i++ {
				if cli.timer.Tick() {
					cli.printf("%s\n", cli.color.Yellow(cli.timer.Label()+"!"))
					break
				}
			}
		default:
			cli.printf("Usage: timer [toggle|reset|tick N]\n")
			return errHelp
		}
	}

	state := "paused"
	if cli.timer.Running() {
		state = "running"
	}
	cli.printf("%s %s (%s, %s done)\n", cli.timer, cli.timer.Label(), state, plural(cli.timer.Sessions(), "session"))
	return nil
}

// unchanged reports a no-op intent.
func (cli *commandLine) unchanged(msg string) error {
	cli.printf("%s\n", cli.color.Yellow("Nothing changed: "+msg))
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

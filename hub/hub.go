// Package hub looks after the running services: it starts them, stops them,
// routes REPL input to the current one, and keeps its records in SQL when a
// database is attached. It is an orchestration layer only; if it disappeared,
// the execution core wouldn't notice.
package hub

import (
	"database/sql"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/pryzma-lang/pryzma/database"
	"github.com/pryzma-lang/pryzma/initializer"
	"github.com/pryzma-lang/pryzma/manifest"
	"github.com/pryzma-lang/pryzma/object"
	"github.com/pryzma-lang/pryzma/text"
	"github.com/pryzma-lang/pryzma/token"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("pryzma.hub")

// errUsage means the command was malformed and the complaint has already
// been written to the user.
var errUsage = errors.New("usage")

type Hub struct {
	services map[string]*initializer.Service
	current  string
	in       io.Reader
	out      io.Writer
	mft      *manifest.Manifest
	Db       *sql.DB
	Username string

	anonymousServiceNumber int
	peeking                bool
}

func New(mft *manifest.Manifest, in io.Reader, out io.Writer) *Hub {
	return &Hub{
		services: make(map[string]*initializer.Service),
		in:       in,
		out:      out,
		mft:      mft,
	}
}

func (hub *Hub) CurrentServiceName() string {
	return hub.current
}

func (hub *Hub) CurrentServiceIsBroken() bool {
	service, ok := hub.services[hub.current]
	return ok && service.Broken
}

func (hub *Hub) WriteString(s string) {
	io.WriteString(hub.out, s)
}

// Do handles one line of user input. Things starting with "hub" are hub
// commands; anything else goes to the current service. It reports whether
// the user asked to quit.
func (hub *Hub) Do(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if fields := strings.Fields(line); fields[0] == "hub" {
		return hub.doHubCommand(fields[1:])
	}
	service, ok := hub.services[hub.current]
	if !ok {
		hub.writeError(object.CreateErr("repl/quit", blankToken()))
		return false
	}
	result := service.Do(line)
	hub.showResult(service, result)
	return false
}

func (hub *Hub) doHubCommand(args []string) bool {
	if len(args) == 0 {
		hub.WriteString("\nThe hub is listening. Try " + text.Emph("hub help") + ".\n\n")
		return false
	}
	verb := args[0]
	rest := args[1:]
	switch verb {
	case "help":
		hub.help()
	case "quit":
		hub.WriteString(text.OK + "\n")
		return true
	case "run":
		hub.run(rest)
	case "services":
		hub.listServices()
	case "switch":
		hub.switchService(rest)
	case "stop":
		hub.stop(rest)
	case "vars":
		hub.vars()
	case "peek":
		hub.peek(rest)
	case "db":
		hub.doDb(rest)
	default:
		hub.WriteString("\nThe hub doesn't know the command " + text.Emph(verb) + ". Try " +
			text.Emph("hub help") + ".\n\n")
	}
	return false
}

func (hub *Hub) help() {
	hub.WriteString("\n" +
		text.BULLET + "hub run <filepath> (as <name>) : start a service\n" +
		text.BULLET + "hub services : list the running services\n" +
		text.BULLET + "hub switch <name> : talk to a different service\n" +
		text.BULLET + "hub stop <name> : stop a service\n" +
		text.BULLET + "hub vars : show the current service's variables\n" +
		text.BULLET + "hub peek on/off : trace each statement as it runs\n" +
		text.BULLET + "hub db init : set up the hub's database\n" +
		text.BULLET + "hub db store/forget/stored/run : keep service records in the database\n" +
		text.BULLET + "hub db add admin/user/group : manage accounts\n" +
		text.BULLET + "hub db join/leave/let/unlet : manage group membership and access\n" +
		text.BULLET + "hub db login <username> <password> : log in\n" +
		text.BULLET + "hub quit : stop everything and leave\n\n")
}

func (hub *Hub) run(args []string) {
	if len(args) == 0 {
		hub.WriteString("\nUsage: " + text.Emph("hub run <filepath> (as <name>)") + ".\n\n")
		return
	}
	scriptFilepath := args[0]
	var name string
	switch {
	case len(args) == 3 && args[1] == "as":
		name = args[2]
	case len(args) == 1:
		name = "#" + strconv.Itoa(hub.anonymousServiceNumber)
		hub.anonymousServiceNumber++
	default:
		hub.WriteString("\nUsage: " + text.Emph("hub run <filepath> (as <name>)") + ".\n\n")
		return
	}
	service := initializer.NewService(hub.mft, hub.out, hub.in)
	if hub.peeking {
		service.Ctx.Hook = hub.peekHook
	}
	log.Infof("starting service %s from %s", name, scriptFilepath)
	result := service.RunScript(scriptFilepath)
	hub.services[name] = service
	hub.current = name
	if err, ok := result.(*object.Error); ok {
		hub.writeError(err)
		return
	}
	hub.WriteString(text.OK + "\n")
}

func (hub *Hub) listServices() {
	if len(hub.services) == 0 {
		hub.WriteString("\nThe hub isn't running any services.\n\n")
		return
	}
	names := []string{}
	for name := range hub.services {
		names = append(names, name)
	}
	sort.Strings(names)
	hub.WriteString("\nThe hub is running the following services:\n\n")
	for _, name := range names {
		line := name + " (" + hub.services[name].ScriptFilepath + ")"
		if hub.services[name].Broken {
			line = text.Red(line)
		}
		if name == hub.current {
			line = line + " ← current"
		}
		hub.WriteString(text.BULLET + line + "\n")
	}
	hub.WriteString("\n")
}

func (hub *Hub) switchService(args []string) {
	if len(args) != 1 {
		hub.WriteString("\nUsage: " + text.Emph("hub switch <name>") + ".\n\n")
		return
	}
	if _, ok := hub.services[args[0]]; !ok {
		hub.WriteString("\nThe hub has no service called " + text.Emph(args[0]) + ".\n\n")
		return
	}
	if !hub.mayUseService(args[0]) {
		hub.WriteString("\nYou don't have access to " + text.Emph(args[0]) + ".\n\n")
		return
	}
	hub.current = args[0]
	if hub.Username != "" && hub.Db != nil {
		if err := database.UpdateUserService(hub.Db, hub.Username, args[0]); err != nil {
			log.Errorf("can't record user's service: %s", err)
		}
	}
	hub.WriteString(text.OK + "\n")
}

// mayUseService says whether the logged-in user can talk to the named
// service. With nobody logged in, or no database attached, everything is
// open; admins can go anywhere.
func (hub *Hub) mayUseService(serviceName string) bool {
	if hub.Username == "" || hub.Db == nil {
		return true
	}
	admin, err := database.IsUserAdmin(hub.Db, hub.Username)
	if err != nil {
		log.Errorf("can't check admin status: %s", err)
		return false
	}
	if admin {
		return true
	}
	access, err := database.DoesUserHaveAccess(hub.Db, hub.Username, serviceName)
	if err != nil {
		log.Errorf("can't check access: %s", err)
		return false
	}
	return access
}

func (hub *Hub) stop(args []string) {
	name := hub.current
	if len(args) == 1 {
		name = args[0]
	}
	if _, ok := hub.services[name]; !ok {
		hub.WriteString("\nThe hub has no service called " + text.Emph(name) + ".\n\n")
		return
	}
	log.Infof("stopping service %s", name)
	delete(hub.services, name)
	if hub.current == name {
		hub.current = ""
	}
	hub.WriteString(text.OK + "\n")
}

func (hub *Hub) vars() {
	service, ok := hub.services[hub.current]
	if !ok {
		hub.writeError(object.CreateErr("repl/quit", blankToken()))
		return
	}
	dump := service.Env.StringDumpVariables()
	if dump == "" {
		hub.WriteString("\nThe service has no variables.\n\n")
		return
	}
	hub.WriteString("\n" + dump + "\n")
}

// peek turns the evaluator's step hook on or off for every service the hub
// runs. This is the debugger at its crudest: one line per statement.
func (hub *Hub) peek(args []string) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		hub.WriteString("\nUsage: " + text.Emph("hub peek on") + " or " + text.Emph("hub peek off") + ".\n\n")
		return
	}
	hub.peeking = args[0] == "on"
	for _, service := range hub.services {
		if hub.peeking {
			service.Ctx.Hook = hub.peekHook
		} else {
			service.Ctx.Hook = nil
		}
	}
	hub.WriteString(text.OK + "\n")
}

func (hub *Hub) peekHook(tok token.Token, env *object.Environment) {
	hub.WriteString(text.Yellow("peek:") + " " + tok.Literal + text.DescribePos(tok) + "\n")
}

// getDb lazily opens the connection described in the manifest, reporting
// whether the hub now has one.
func (hub *Hub) getDb() bool {
	if hub.Db != nil {
		return true
	}
	db, err := database.GetdB(hub.mft.Database.Driver, hub.mft.Database.Host, hub.mft.Database.Port,
		hub.mft.Database.Name, hub.mft.Database.Username, hub.mft.Database.Password)
	if err != nil {
		log.Errorf("can't connect to database: %s", err)
		hub.WriteString("\nThe hub can't connect to its database: " + err.Error() + "\n\n")
		return false
	}
	hub.Db = db
	return true
}

func (hub *Hub) doDb(args []string) {
	if len(args) == 0 {
		hub.WriteString("\nUsage: " + text.Emph("hub db init/store/forget/stored/run/add/join/leave/let/unlet/login") + ".\n\n")
		return
	}
	if !hub.getDb() {
		return
	}
	var err error
	switch args[0] {
	case "init":
		err = database.Initialize(hub.Db)
	case "store":
		name := hub.current
		if len(args) == 2 {
			name = args[1]
		}
		service, ok := hub.services[name]
		if !ok {
			hub.WriteString("\nThe hub has no service called " + text.Emph(name) + ".\n\n")
			return
		}
		err = database.StoreService(hub.Db, name, service.ScriptFilepath)
	case "forget":
		if len(args) != 2 {
			hub.WriteString("\nUsage: " + text.Emph("hub db forget <name>") + ".\n\n")
			return
		}
		err = database.ForgetService(hub.Db, args[1])
	case "stored":
		var stored map[string]string
		stored, err = database.ListServices(hub.Db)
		if err == nil {
			if len(stored) == 0 {
				hub.WriteString("\nThe database has no services stored.\n\n")
				return
			}
			names := []string{}
			for name := range stored {
				names = append(names, name)
			}
			sort.Strings(names)
			hub.WriteString("\nThe database stores the following services:\n\n")
			for _, name := range names {
				hub.WriteString(text.BULLET + name + " (" + stored[name] + ")\n")
			}
			hub.WriteString("\n")
			return
		}
	case "run":
		if len(args) != 2 {
			hub.WriteString("\nUsage: " + text.Emph("hub db run <name>") + ".\n\n")
			return
		}
		var scriptFilepath string
		scriptFilepath, err = database.GetService(hub.Db, args[1])
		if err == nil {
			hub.run([]string{scriptFilepath, "as", args[1]})
			return
		}
	case "add":
		err = hub.dbAdd(args[1:])
		if errors.Is(err, errUsage) {
			return
		}
	case "join":
		if len(args) != 3 {
			hub.WriteString("\nUsage: " + text.Emph("hub db join <username> <group>") + ".\n\n")
			return
		}
		err = database.AddUserToGroup(hub.Db, args[1], args[2], false)
	case "leave":
		if len(args) != 3 {
			hub.WriteString("\nUsage: " + text.Emph("hub db leave <username> <group>") + ".\n\n")
			return
		}
		err = database.RemoveUserFromGroup(hub.Db, args[1], args[2])
	case "let":
		if len(args) != 3 {
			hub.WriteString("\nUsage: " + text.Emph("hub db let <group> <service>") + ".\n\n")
			return
		}
		err = database.LetGroupUseService(hub.Db, args[1], args[2])
	case "unlet":
		if len(args) != 3 {
			hub.WriteString("\nUsage: " + text.Emph("hub db unlet <group> <service>") + ".\n\n")
			return
		}
		err = database.UnLetGroupUseService(hub.Db, args[1], args[2])
	case "login":
		if len(args) != 3 {
			hub.WriteString("\nUsage: " + text.Emph("hub db login <username> <password>") + ".\n\n")
			return
		}
		var serviceName string
		serviceName, err = database.ValidateUser(hub.Db, args[1], args[2])
		if err == nil {
			hub.Username = args[1]
			log.Infof("user %s logged in", hub.Username)
			if serviceName != "" {
				hub.WriteString("\nWelcome back. Your service is " + text.Emph(serviceName) + ".\n")
			}
		}
	default:
		hub.WriteString("\nThe hub doesn't know the command " + text.Emph("db "+args[0]) + ".\n\n")
		return
	}
	if err != nil {
		log.Errorf("database command failed: %s", err)
		hub.WriteString("\nThe database says: " + err.Error() + "\n\n")
		return
	}
	hub.WriteString(text.OK + "\n")
}

// dbAdd handles 'hub db add admin/user <name> <password> <email>' and
// 'hub db add group <name>'.
func (hub *Hub) dbAdd(args []string) error {
	if len(args) == 2 && args[0] == "group" {
		return database.AddGroup(hub.Db, args[1])
	}
	if len(args) != 4 {
		hub.WriteString("\nUsage: " + text.Emph("hub db add admin/user <name> <password> <email>") +
			" or " + text.Emph("hub db add group <name>") + ".\n\n")
		return errUsage
	}
	switch args[0] {
	case "admin":
		return database.AddAdmin(hub.Db, args[1], args[3], args[2])
	case "user":
		return database.AddUser(hub.Db, args[1], args[3], args[2], "")
	}
	hub.WriteString("\nThe hub can add an " + text.Emph("admin") + ", a " + text.Emph("user") +
		", or a " + text.Emph("group") + ".\n\n")
	return errUsage
}

// showResult renders what a service handed back, honoring the service's
// $view setting.
func (hub *Hub) showResult(service *initializer.Service, result object.Object) {
	if err, ok := result.(*object.Error); ok {
		hub.writeError(err)
		return
	}
	if result == object.NONE {
		return
	}
	view := object.View(object.ViewStdOut)
	if setting, ok := service.Env.Get("$view"); ok {
		if str, ok := setting.(*object.String); ok && str.Value == "pryzma" {
			view = object.ViewPryzmaLiteral
		}
	}
	hub.WriteString(result.Inspect(view) + "\n")
}

func (hub *Hub) writeError(err *object.Error) {
	hub.WriteString("\n" + text.RT_ERROR + err.Message + text.DescribePos(err.Token) + ".\n")
	for _, tok := range err.Trace {
		hub.WriteString(text.BULLET + "called" + text.DescribePos(tok) + "\n")
	}
	hub.WriteString("\n")
}

func blankToken() token.Token {
	return token.Token{Source: "REPL input"}
}

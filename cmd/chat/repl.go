package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/npezzotti/go-chatclient/internal/session"
	"github.com/npezzotti/go-chatclient/internal/transport"
	"github.com/npezzotti/go-chatclient/internal/types"
	"github.com/olekukonko/tablewriter"
)

const helpText = `commands:
  /rooms                list your rooms
  /open <room-id>       open a room
  /close                close the open room
  /users                list the open room's participants
  /create <name>        create a room
  /rename <id> <name>   rename a room
  /delete <room-id>     delete a room
  /leave <room-id>      leave a room
  /invite <room-id>     create an invitation token
  /accept <token>       join a room by invitation token
  /profile              show your profile
  /setname <first> <last>  update your profile name
  /reconnect            reconnect after a drop
  /quit                 exit

anything else is sent to the open room as a message.`

type repl struct {
	sess *session.Session
	log  *log.Logger
	out  io.Writer
}

func newRepl(sess *session.Session, logger *log.Logger) *repl {
	return &repl{
		sess: sess,
		log:  logger,
		out:  os.Stdout,
	}
}

// registerListeners renders pushed events as they arrive.
func (r *repl) registerListeners() {
	ls := r.sess.Listeners()

	ls.OnMessage(func(msg types.Message) {
		fmt.Fprintf(r.out, "%s %s\n", color.Cyan.Sprintf("%s:", msg.SenderFirstName), msg.Content)
	})
	ls.OnRoomUpdated(func(room types.Room) {
		fmt.Fprintln(r.out, color.Gray.Sprintf("* room %q updated", room.Name))
	})
	ls.OnRoomDeleted(func(roomId string) {
		fmt.Fprintln(r.out, color.Gray.Sprintf("* room %s deleted", roomId))
	})
	ls.OnRoomUsers(func(roomId string, users []types.RoomUser) {
		fmt.Fprintln(r.out, color.Gray.Sprintf("* %d online in room %s", len(users), roomId))
	})
	ls.OnConnectionState(func(st transport.State) {
		fmt.Fprintln(r.out, color.Yellow.Sprintf("* connection %s", st))
	})
}

func (r *repl) run(in io.Reader) {
	fmt.Fprintln(r.out, helpText)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			r.send(line)
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		if !r.dispatch(cmd, strings.TrimSpace(arg)) {
			return
		}
	}
}

func (r *repl) dispatch(cmd, arg string) bool {
	ctx := context.Background()

	switch cmd {
	case "/quit":
		return false
	case "/help":
		fmt.Fprintln(r.out, helpText)
	case "/rooms":
		r.printRooms()
	case "/open":
		if arg == "" {
			r.errorf("usage: /open <room-id>")
			break
		}
		r.sess.SelectRoom(arg)
	case "/close":
		r.sess.ClearRoom()
	case "/users":
		r.printUsers()
	case "/create":
		if arg == "" {
			r.errorf("usage: /create <name>")
			break
		}
		room, err := r.sess.CreateRoom(ctx, arg)
		if err != nil {
			r.errorf("create room: %s", err)
			break
		}
		fmt.Fprintln(r.out, color.Green.Sprintf("created room %s (%s)", room.Name, room.Id))
	case "/rename":
		roomId, name, _ := strings.Cut(arg, " ")
		if roomId == "" || name == "" {
			r.errorf("usage: /rename <room-id> <name>")
			break
		}
		if _, err := r.sess.RenameRoom(ctx, roomId, name); err != nil {
			r.errorf("rename room: %s", err)
		}
	case "/delete":
		if arg == "" {
			r.errorf("usage: /delete <room-id>")
			break
		}
		if err := r.sess.DeleteRoom(ctx, arg); err != nil {
			r.errorf("delete room: %s", err)
		}
	case "/leave":
		if arg == "" {
			r.errorf("usage: /leave <room-id>")
			break
		}
		if err := r.sess.LeaveRoom(ctx, arg); err != nil {
			r.errorf("leave room: %s", err)
		}
	case "/invite":
		if arg == "" {
			r.errorf("usage: /invite <room-id>")
			break
		}
		inv, err := r.sess.Invite(ctx, arg)
		if err != nil {
			r.errorf("invite: %s", err)
			break
		}
		fmt.Fprintln(r.out, color.Green.Sprintf("invitation token: %s", inv.Token))
	case "/accept":
		if arg == "" {
			r.errorf("usage: /accept <token>")
			break
		}
		room, err := r.sess.AcceptInvitation(ctx, arg)
		if err != nil {
			r.errorf("accept invitation: %s", err)
			break
		}
		fmt.Fprintln(r.out, color.Green.Sprintf("joined room %s (%s)", room.Name, room.Id))
	case "/profile":
		r.printProfile()
	case "/setname":
		first, last, _ := strings.Cut(arg, " ")
		if first == "" {
			r.errorf("usage: /setname <first> <last>")
			break
		}
		profile := r.sess.State().Profile()
		profile.FirstName = first
		if last != "" {
			profile.LastName = last
		}
		if _, err := r.sess.SaveProfile(ctx, profile); err != nil {
			r.errorf("save profile: %s", err)
		}
	case "/reconnect":
		if err := r.sess.Reconnect(); err != nil {
			r.errorf("reconnect: %s", err)
		}
	default:
		r.errorf("unknown command %s", cmd)
	}

	return true
}

func (r *repl) send(content string) {
	roomId := r.sess.State().CurrentRoomId()
	if roomId == "" {
		r.errorf("no room open, use /open <room-id>")
		return
	}

	r.sess.SendMessage(roomId, content)
}

func (r *repl) printRooms() {
	rooms := r.sess.State().Rooms()
	if len(rooms) == 0 {
		fmt.Fprintln(r.out, "no rooms")
		return
	}

	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"ID", "Name", "Last Message", "From"})
	for _, room := range rooms {
		table.Append([]string{room.Id, room.Name, room.LastMessage, room.LastMessageSenderFirstName})
	}
	table.Render()
}

func (r *repl) printUsers() {
	if r.sess.State().CurrentRoomId() == "" {
		r.errorf("no room open")
		return
	}

	online := make(map[string]bool)
	for _, u := range r.sess.State().RoomUsers() {
		online[u.Id] = true
	}

	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"ID", "Name", "Online"})
	for _, u := range r.sess.State().AllRoomUsers() {
		status := ""
		if online[u.Id] {
			status = "yes"
		}
		table.Append([]string{u.Id, strings.TrimSpace(u.FirstName + " " + u.LastName), status})
	}
	table.Render()
}

func (r *repl) printProfile() {
	profile := r.sess.State().Profile()
	fmt.Fprintf(r.out, "%s %s <%s> (%s)\n", profile.FirstName, profile.LastName, profile.Email, profile.Id)
}

func (r *repl) errorf(format string, args ...any) {
	fmt.Fprintln(r.out, color.Red.Sprintf(format, args...))
}

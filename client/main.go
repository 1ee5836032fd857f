package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mahaj/chatify/internal/config"
	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/internal/viewmodel"
	"github.com/mahaj/chatify/pkg/model"
)

// Terminal client driving the view models directly against the gateway.
// Useful for poking at a running cluster without the browser front end.
func main() {
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	name := flag.String("name", "", "display name (sign up a new account when set)")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("email and password are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gw, err := gateway.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect gateway: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var user *model.User
	if *name != "" {
		user, err = gw.Identity.SignUp(ctx, *email, *password, *name)
	} else {
		user, err = gw.Identity.SignIn(ctx, *email, *password)
	}
	if err != nil {
		log.Fatal("Sign in failed: ", err)
	}
	log.Printf("Signed in as %s (%s)", user.Name, user.ID)

	notify := viewmodel.LogNotifier{}
	directory := viewmodel.NewRoomDirectory(gw.Identity, gw.Rooms, notify)
	stream := viewmodel.NewMessageStream(gw.Identity, gw.Rooms, gw.Messages, notify)
	feed := viewmodel.NewStatusFeed(gw.Identity, gw.Statuses, gw.Blobs, notify)
	uploads := viewmodel.NewUploadController(gw.Blobs, notify)

	// Keep a live room listing around so /join can resolve names.
	var mu sync.Mutex
	var rooms []model.Room

	roomsSub, err := directory.Rooms(ctx)
	if err != nil {
		log.Fatal("Failed to subscribe to rooms: ", err)
	}
	go func() {
		for snapshot := range roomsSub.Updates() {
			mu.Lock()
			rooms = snapshot
			mu.Unlock()
		}
	}()

	if err := feed.Open(ctx); err != nil {
		log.Fatal("Failed to open status feed: ", err)
	}

	var printed int
	stream.OnChange = func() {
		msgs := stream.Messages()
		mu.Lock()
		from := printed
		if from > len(msgs) {
			from = 0
		}
		printed = len(msgs)
		mu.Unlock()
		for _, m := range msgs[from:] {
			line := m.Content
			if m.HasAttachment() {
				line = fmt.Sprintf("%s [%s]", line, m.FileURL)
			}
			fmt.Printf("\r%s: %s\n> ", m.UserName, line)
		}
	}
	stream.OnRoomGone = func() {
		fmt.Print("\rRoom is gone.\n> ")
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Print("> ")
		for scanner.Scan() {
			handleLine(ctx, scanner.Text(), &mu, &rooms, &printed,
				directory, stream, feed, uploads, user, interrupt)
			fmt.Print("> ")
		}
	}()

	<-interrupt
	log.Println("interrupt")
	stream.Close()
	feed.Close()
}

func handleLine(ctx context.Context, text string, mu *sync.Mutex, rooms *[]model.Room, printed *int,
	directory *viewmodel.RoomDirectory, stream *viewmodel.MessageStream, feed *viewmodel.StatusFeed,
	uploads *viewmodel.UploadController, user *model.User, interrupt chan os.Signal) {

	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	cmd, arg, _ := strings.Cut(text, " ")
	switch cmd {
	case "/quit":
		interrupt <- os.Interrupt

	case "/rooms":
		mu.Lock()
		for _, room := range *rooms {
			fmt.Printf("  %s  (%s)\n", room.Name, room.ID)
		}
		mu.Unlock()

	case "/create":
		if err := directory.CreateRoom(ctx, arg); err != nil {
			fmt.Println("create:", err)
		}

	case "/join":
		mu.Lock()
		var target *model.Room
		for i, room := range *rooms {
			if room.ID == arg || room.Name == arg {
				target = &(*rooms)[i]
				break
			}
		}
		mu.Unlock()
		if target == nil {
			fmt.Println("no such room")
			return
		}
		mu.Lock()
		*printed = 0
		mu.Unlock()
		if err := stream.Open(ctx, target.ID); err != nil {
			fmt.Println("join:", err)
		}

	case "/delete":
		room := stream.Room()
		if room == nil {
			fmt.Println("no room open")
			return
		}
		stream.Close()
		if err := directory.DeleteRoom(ctx, *room); err != nil {
			fmt.Println("delete:", err)
		}

	case "/attach":
		f, err := os.Open(arg)
		if err != nil {
			fmt.Println("attach:", err)
			return
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			fmt.Println("attach:", err)
			return
		}
		if err := uploads.Select(viewmodel.File{
			Name:        filepath.Base(arg),
			ContentType: "application/octet-stream",
			Size:        info.Size(),
			Content:     f,
		}); err != nil {
			fmt.Println("attach:", err)
			return
		}
		err = uploads.Start(ctx, user.ID, func(att *model.Attachment) error {
			return stream.Send(ctx, "", att)
		})
		if err != nil {
			fmt.Println("attach:", err)
		}

	case "/status":
		if mine := feed.MyGroup(); mine != nil {
			fmt.Printf("  My Status (%d)\n", len(mine.Posts))
		}
		for i, group := range feed.Others() {
			fmt.Printf("  [%d] %s, %s\n", i, group.UserName,
				viewmodel.RelativeTime(group.LastUpdate, time.Now()))
		}

	case "/post":
		if err := feed.CreateStatus(ctx, arg, nil); err != nil {
			fmt.Println("post:", err)
		}

	default:
		if strings.HasPrefix(cmd, "/") {
			fmt.Println("commands: /rooms /create /join /delete /attach /status /post /quit")
			return
		}
		if err := stream.Send(ctx, text, nil); err != nil {
			fmt.Println("send:", err)
		}
	}
}

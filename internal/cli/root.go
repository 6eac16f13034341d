package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return ""
	}
	ctx := context.Background()
	s := a.directory.Label(a.session.EffectiveOwner(ctx))
	if a.session.IsReadOnlyView(ctx) {
		s += " read-only"
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to modelbox CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	if err := a.Login(ctx); err != nil {
		log.Println(err.Error())
	}

	for {
		if a.dirty.Swap(false) {
			fmt.Println("Remote catalog changed; run 'list' to reload")
			a.entries = nil
		}

		fmt.Printf("mbx %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: (l)ist, search, add, remove, stage, save, view, similar, compare, logout, exit")
			} else {
				fmt.Println("Available commands: login, exit")
			}

		case "login":
			if err := a.Login(ctx); err != nil {
				log.Println(err.Error())
			}
		case "logout":
			if err := a.Logout(ctx); err != nil {
				log.Println(err.Error())
			}
		case "l", "list":
			a.list(ctx, "")
		case "search":
			a.list(ctx, strings.Join(args, " "))
		case "add":
			if err := a.add(ctx); err != nil {
				log.Println(err.Error())
			}
		case "remove":
			if len(args) == 0 {
				fmt.Println("Usage: remove <number>")
				continue
			}
			a.remove(args[0])
		case "stage":
			if len(args) == 0 {
				fmt.Println("Usage: stage <path to image>")
				continue
			}
			a.stage(args[0])
		case "save":
			a.save(ctx)
		case "view":
			a.view(ctx, strings.Join(args, " "))
		case "similar":
			a.similarCmd(ctx)
		case "compare":
			a.compareCmd(ctx, strings.Join(args, " "))
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}

// Command client is an interactive operator client for the bankline server.
// It speaks the positional frame protocol: every prompt printed here arrives
// from the server in a fixed order, so the client mirrors the server's state
// machine rather than parsing message content — with one exception in the
// transfer flow, where the original protocol branches on the prompt text.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"

	"bankline/internal/adapter/tcp"
)

const transferAmountPrompt = "Please enter the amount to transfer: "

type client struct {
	framer *tcp.Framer
	stdin  *bufio.Scanner
}

func main() {
	addr := flag.String("addr", "127.0.0.1:2004", "server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s\n", *addr)

	c := &client{
		framer: tcp.NewFramer(conn, 0),
		stdin:  bufio.NewScanner(os.Stdin),
	}
	if err := c.run(); err != nil {
		fmt.Fprintf(os.Stderr, "session ended: %v\n", err)
		os.Exit(1)
	}
}

func (c *client) run() error {
	for {
		if err := c.show(); err != nil { // top menu
			return err
		}
		response, err := c.reply()
		if err != nil {
			return err
		}

		switch response {
		case "1":
			if err := c.registration(); err != nil {
				return err
			}
		case "2":
			closed, err := c.login()
			if err != nil {
				return err
			}
			if closed {
				return nil
			}
		case "0":
			// Server closes without further exchange.
			return nil
		default:
			if err := c.show(); err != nil { // invalid option notice
				return err
			}
			continue
		}

		if err := c.show(); err != nil { // "Enter 1 to go back: "
			return err
		}
		again, err := c.reply()
		if err != nil {
			return err
		}
		if again != "1" {
			return c.show() // "Logout successful."
		}
	}
}

func (c *client) registration() error {
	if err := c.exchange(); err != nil { // name
		return err
	}

	// PPS and email re-prompt until valid; mirror the server's checks so we
	// know whether to expect an error notice before the next prompt.
	for {
		if err := c.show(); err != nil {
			return err
		}
		pps, err := c.reply()
		if err != nil {
			return err
		}
		if tcp.ValidPPSNumber(pps) {
			break
		}
		if err := c.show(); err != nil { // invalid PPS notice
			return err
		}
	}
	for {
		if err := c.show(); err != nil {
			return err
		}
		email, err := c.reply()
		if err != nil {
			return err
		}
		if tcp.ValidEmail(email) {
			break
		}
		if err := c.show(); err != nil { // invalid email notice
			return err
		}
	}

	for i := 0; i < 3; i++ { // password, address, balance
		if err := c.exchange(); err != nil {
			return err
		}
	}
	return c.show() // registration result
}

// login returns true when the session ended inside the operations menu
// (logout closes the connection).
func (c *client) login() (bool, error) {
	for {
		if err := c.exchange(); err != nil { // email
			return false, err
		}
		if err := c.exchange(); err != nil { // password
			return false, err
		}

		result, err := c.framer.ReadMessage()
		if err != nil {
			return false, err
		}
		fmt.Println(result)

		if result != "Invalid email or password." {
			if err := c.operations(); err != nil {
				return false, err
			}
			return true, nil
		}

		if err := c.show(); err != nil { // "Enter -1 to EXIT ..."
			return false, err
		}
		token, err := c.reply()
		if err != nil {
			return false, err
		}
		if token == "-1" {
			return false, nil
		}
	}
}

func (c *client) operations() error {
	choice := ""
	valid := true
	for choice != "8" || !valid {
		if err := c.show(); err != nil { // operations menu
			return err
		}
		var err error
		choice, err = c.reply()
		if err != nil {
			return err
		}

		valid = true
		switch choice {
		case "3", "7":
			err = c.promptThenResult()
		case "4", "6":
			err = c.listing()
		case "5":
			err = c.transfer()
		case "8":
			err = c.show() // "Logout successful."
		default:
			valid = false
			err = c.show() // invalid option notice
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// promptThenResult handles the lodge and password flows: one prompt, one
// reply, one result message.
func (c *client) promptThenResult() error {
	if err := c.exchange(); err != nil {
		return err
	}
	return c.show()
}

// listing handles the account and transaction listings: header, count, then
// count lines.
func (c *client) listing() error {
	if err := c.show(); err != nil { // header
		return err
	}
	countText, err := c.framer.ReadMessage()
	if err != nil {
		return err
	}
	fmt.Println(countText)

	var count int
	if _, err := fmt.Sscanf(countText, "%d", &count); err != nil {
		return fmt.Errorf("unexpected count %q: %w", countText, err)
	}
	for i := 0; i < count; i++ {
		if err := c.show(); err != nil {
			return err
		}
	}
	return nil
}

func (c *client) transfer() error {
	if err := c.exchange(); err != nil { // recipient email
		return err
	}
	if err := c.exchange(); err != nil { // recipient PPS
		return err
	}

	// The next message is either the amount prompt or "Recipient not found.";
	// the only place the protocol branches on message content.
	msg, err := c.framer.ReadMessage()
	if err != nil {
		return err
	}
	fmt.Println(msg)
	if msg != transferAmountPrompt {
		return nil
	}

	amount, err := c.reply()
	if err != nil {
		return err
	}
	_ = amount
	return c.show() // transfer result
}

// exchange prints the next server prompt and sends one line of operator
// input.
func (c *client) exchange() error {
	if err := c.show(); err != nil {
		return err
	}
	_, err := c.reply()
	return err
}

// show prints the next server message.
func (c *client) show() error {
	msg, err := c.framer.ReadMessage()
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

// reply reads one line from the operator and sends it.
func (c *client) reply() (string, error) {
	if !c.stdin.Scan() {
		if err := c.stdin.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("stdin closed")
	}
	line := c.stdin.Text()
	if err := c.framer.WriteMessage(line); err != nil {
		return "", err
	}
	return line, nil
}

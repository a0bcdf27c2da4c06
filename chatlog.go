package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	userLogFile      = "messages.log"
	assistantLogFile = "replies.log"
)

// ChatLog keeps the free-text exchange as two flat append-only files, one
// per role, one message per line. Embedded newlines are flattened to
// spaces so a message can never span lines. The mutex enforces the
// single-writer discipline this layout needs.
type ChatLog struct {
	dir string
	mu  sync.Mutex
}

func NewChatLog(dir string) (*ChatLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create chat log dir: %w", err)
	}
	return &ChatLog{dir: dir}, nil
}

// Append records one message for the given role ("user" or "assistant").
func (c *ChatLog) Append(role, text string) error {
	path, err := c.pathFor(role)
	if err != nil {
		return err
	}

	line := flattenNewlines(text)

	c.mu.Lock()
	defer c.mu.Unlock()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open chat log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append chat log: %w", err)
	}
	return nil
}

// LastUser returns the most recent user message, or "" when none exists.
func (c *ChatLog) LastUser() (string, error) {
	return c.lastLine(filepath.Join(c.dir, userLogFile))
}

// LastAssistant returns the most recent generated reply, or "" when none
// exists.
func (c *ChatLog) LastAssistant() (string, error) {
	return c.lastLine(filepath.Join(c.dir, assistantLogFile))
}

func (c *ChatLog) pathFor(role string) (string, error) {
	switch role {
	case "user":
		return filepath.Join(c.dir, userLogFile), nil
	case "assistant":
		return filepath.Join(c.dir, assistantLogFile), nil
	default:
		return "", fmt.Errorf("chat log role must be user or assistant, got %q", role)
	}
}

func (c *ChatLog) lastLine(path string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open chat log: %w", err)
	}
	defer f.Close()

	last := ""
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read chat log: %w", err)
	}
	return last, nil
}

func flattenNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

package statestore

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-statestore/tree"
)

type todo struct {
	ID   int      `yaml:"id"`
	Text string   `yaml:"text"`
	Done bool     `yaml:"done"`
	Tags []string `yaml:"tags"`
}

type owner struct {
	Name  string   `yaml:"name"`
	Roles []string `yaml:"roles"`
}

func TestDecodeSubtree(t *testing.T) {
	store := loadTodos(t)

	todos, err := Decode[[]todo](store, tree.P("todos"))
	if err != nil {
		t.Fatalf("decode todos: %v", err)
	}
	if len(todos) != 3 || todos[1].Text != "wire hooks" || todos[1].Tags[1] != "events" {
		t.Fatalf("unexpected todos %+v", todos)
	}

	who, err := Decode[owner](store, tree.P("owner"))
	if err != nil {
		t.Fatalf("decode owner: %v", err)
	}
	if who.Name != "ada" || len(who.Roles) != 2 {
		t.Fatalf("unexpected owner %+v", who)
	}
}

func TestDecodeHooks(t *testing.T) {
	store := loadTodos(t, WithStoreID("inbox"))

	got, err := Decode(store, tree.P("todos", 0),
		WithDecodePreHook[todo](func(_ DecodeContext, payload any) (any, error) {
			item := payload.(map[string]any)
			item["text"] = strings.ToUpper(item["text"].(string))
			return item, nil
		}),
		WithDecodePostHook[todo](func(ctx DecodeContext, out *todo) error {
			out.Tags = append(out.Tags, ctx.StoreID+":"+ctx.Path)
			return nil
		}),
	)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Text != "WRITE PARSER" {
		t.Fatalf("expected pre-hook to run, got %q", got.Text)
	}
	if got.Tags[len(got.Tags)-1] != "inbox:todos[0]" {
		t.Fatalf("expected post-hook tag, got %v", got.Tags)
	}
	if store.Get(tree.P("todos", 0, "text")).Export() != "write parser" {
		t.Fatalf("expected hooks to leave the store untouched")
	}
}

func TestDecodeErrors(t *testing.T) {
	store := loadTodos(t)

	if _, err := Decode[todo](store, tree.P("missing")); !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}

	type strict struct {
		Name string `yaml:"name"`
	}
	_, err := Decode(store, tree.P("owner"), WithKnownFields[strict]())
	if err == nil || !strings.Contains(err.Error(), "roles") {
		t.Fatalf("expected unknown field error mentioning roles, got %v", err)
	}
	var opErr *OpError
	if !errors.As(err, &opErr) || opErr.Op != "decode" {
		t.Fatalf("expected decode OpError, got %T", err)
	}
}

package hydrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_settings.yaml")

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			decoder := NewDecoder[notificationSettings](buildOptions(tc)...)

			ctx := Context{
				StoreID: tc.StoreID,
				Path:    tc.Path,
			}

			result, err := decoder.Decode(ctx, tc.Input)

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}

			if !reflect.DeepEqual(tc.Expect, result) {
				t.Fatalf("decoded snapshot mismatch:\nwant: %#v\n got: %#v", tc.Expect, result)
			}
		})
	}
}

func TestDecodeRejectsNilPayload(t *testing.T) {
	_, err := NewDecoder[notificationSettings]().Decode(Context{Path: "settings"}, nil)
	if err == nil || !strings.Contains(err.Error(), `payload is nil at path "settings"`) {
		t.Fatalf("expected nil payload error, got %v", err)
	}
}

func TestPostHookErrorsAreWrapped(t *testing.T) {
	boom := errors.New("boom")
	decoder := NewDecoder(WithPostHook[notificationSettings](func(Context, *notificationSettings) error {
		return boom
	}))
	_, err := decoder.Decode(Context{Path: "settings"}, map[string]any{"enabled": true})
	if !errors.Is(err, boom) {
		t.Fatalf("expected post-hook error to unwrap, got %v", err)
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[notificationSettings] {
	options := []DecoderOption[notificationSettings]{}

	for _, optName := range tc.Options {
		switch optName {
		case "known_fields":
			options = append(options, WithKnownFields[notificationSettings]())
		}
	}

	for _, hookName := range tc.PreHooks {
		switch hookName {
		case "quiet_hours_split":
			options = append(options, WithPreHook[notificationSettings](quietHoursPreHook))
		}
	}

	for _, hookName := range tc.PostHooks {
		switch hookName {
		case "ensure_tag":
			options = append(options, WithPostHook[notificationSettings](ensureTagPostHook))
		}
	}

	if tc.CustomDecoder == "enabled_flag" {
		options = append(options, WithCustomDecoder[notificationSettings](enabledFlagDecoder))
	}

	return options
}

func quietHoursPreHook(_ Context, payload any) (any, error) {
	settings, ok := payload.(map[string]any)
	if !ok {
		return payload, nil
	}
	value, ok := settings["quietHours"].(string)
	if !ok || value == "" {
		return payload, nil
	}

	parts := strings.Split(value, "-")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid quiet hours payload %q", value)
	}

	settings["quietHours"] = map[string]any{
		"start": strings.TrimSpace(parts[0]),
		"end":   strings.TrimSpace(parts[1]),
	}
	return settings, nil
}

func ensureTagPostHook(ctx Context, snapshot *notificationSettings) error {
	if snapshot == nil {
		return errors.New("snapshot is nil")
	}
	if len(snapshot.Tags) > 0 {
		return nil
	}
	snapshot.Tags = []string{fmt.Sprintf("%s:%s", ctx.StoreID, ctx.Path)}
	return nil
}

func enabledFlagDecoder(ctx Context, payload any) (notificationSettings, error) {
	flag, ok := payload.(string)
	if !ok {
		return notificationSettings{}, fmt.Errorf("expected flag string at %q", ctx.Path)
	}
	return notificationSettings{Enabled: flag == "on"}, nil
}

type fixture struct {
	Description string        `yaml:"description"`
	Cases       []fixtureCase `yaml:"cases"`
}

type fixtureCase struct {
	Name          string               `yaml:"name"`
	Path          string               `yaml:"path"`
	StoreID       string               `yaml:"storeID"`
	Input         any                  `yaml:"input"`
	Expect        notificationSettings `yaml:"expect"`
	ExpectErr     string               `yaml:"expectErr"`
	PreHooks      []string             `yaml:"preHooks"`
	PostHooks     []string             `yaml:"postHooks"`
	Options       []string             `yaml:"options"`
	CustomDecoder string               `yaml:"customDecoder"`
}

type notificationSettings struct {
	Enabled    bool            `yaml:"enabled"`
	QuietHours quietHours      `yaml:"quietHours"`
	Channels   channelSettings `yaml:"channels"`
	Limits     limits          `yaml:"limits"`
	Tags       []string        `yaml:"tags"`
}

type quietHours struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type channelSettings struct {
	Email channel `yaml:"email"`
	Push  channel `yaml:"push"`
}

type channel struct {
	Enabled   bool   `yaml:"enabled"`
	Frequency string `yaml:"frequency"`
	Threshold int    `yaml:"threshold"`
}

type limits struct {
	Daily   int `yaml:"daily"`
	Monthly int `yaml:"monthly"`
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}

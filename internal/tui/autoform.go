package tui

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/charmbracelet/huh"
)

// AutoForm builds a huh.Form from a struct pointer using its `tui` tags:
//
//	title=..., desc=..., options=Label:value|Label:value, type=text|password,
//	validate=<name in Validators>
//
// Untagged fields are skipped.
func AutoForm(v any) *huh.Form {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		panic("AutoForm requires a pointer to a struct")
	}

	el := val.Elem()
	t := el.Type()
	var fields []huh.Field

	for i := 0; i < el.NumField(); i++ {
		field := el.Field(i)
		tag := t.Field(i).Tag.Get("tui")
		if tag == "" {
			continue
		}

		props := parseTag(tag)
		title := props["title"]
		if title == "" {
			title = t.Field(i).Name
		}
		desc := props["desc"]
		validate := Validators[props["validate"]]

		switch field.Kind() {
		case reflect.String:
			ptr := field.Addr().Interface().(*string)

			if optsStr, ok := props["options"]; ok {
				var opts []huh.Option[string]
				for _, o := range strings.Split(optsStr, "|") {
					label, value, found := strings.Cut(o, ":")
					if !found {
						value = label
					}
					opts = append(opts, huh.NewOption(strings.TrimSpace(label), strings.TrimSpace(value)))
				}
				fields = append(fields, huh.NewSelect[string]().
					Title(title).
					Description(desc).
					Options(opts...).
					Value(ptr))
				continue
			}

			if props["type"] == "text" {
				text := huh.NewText().
					Title(title).
					Description(desc).
					Lines(12).
					Value(ptr)
				if validate != nil {
					text.Validate(validate)
				}
				fields = append(fields, text)
				continue
			}

			input := huh.NewInput().
				Title(title).
				Description(desc).
				Value(ptr)
			if props["type"] == "password" {
				input.EchoMode(huh.EchoModePassword)
			}
			if validate != nil {
				input.Validate(validate)
			}
			fields = append(fields, input)

		case reflect.Bool:
			fields = append(fields, huh.NewConfirm().
				Title(title).
				Description(desc).
				Value(field.Addr().Interface().(*bool)))
		}
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithTheme(huh.ThemeBase16())
}

// parseTag splits "key=val,key2=val2".
func parseTag(tag string) map[string]string {
	res := make(map[string]string)
	for _, part := range strings.Split(tag, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 {
			res[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}
	return res
}

// Validators usable from `validate=` tags.
var Validators = map[string]func(string) error{
	"required": func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("this field is required")
		}
		return nil
	},
	"behavior": func(s string) error {
		if !strings.Contains(s, "update_agents") {
			return fmt.Errorf("define update_agents(agents)")
		}
		return nil
	},
}

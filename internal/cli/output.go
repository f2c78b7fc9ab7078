package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mcoot/communityportal/internal/api/response"
	"github.com/mcoot/communityportal/internal/gateway"
	"github.com/mcoot/communityportal/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Session:
		o.printSession(v)
	case SignupResult:
		o.printSignupResult(v)
	case Access:
		o.printAccess(v)
	case Profile:
		o.printProfile(v)
	case HealthResult:
		fmt.Printf("Status: %s\n", v.Status)
	case *[]model.NewsItem:
		for _, n := range *v {
			fmt.Printf("%3d  %s  %s (%s)\n", n.ID, n.NewsDate, n.Title, n.Author)
		}
	case model.NewsItem:
		fmt.Printf("%s\n%s · %s · %s\n\n%s\n", v.Title, v.NewsDate, v.Author, v.Category, firstNonEmpty(v.Content, v.Excerpt))
	case *[]model.Event:
		for _, e := range *v {
			fmt.Printf("%3d  %s %s  %s @ %s [%s]\n", e.ID, e.EventDate, e.EventTime, e.Title, e.Location, e.Status)
		}
	case model.Event:
		fmt.Printf("%s\n%s %s · %s\n\n%s\n", v.Title, v.EventDate, v.EventTime, v.Location, firstNonEmpty(v.Content, v.Description))
	case *[]model.Download:
		for _, d := range *v {
			fmt.Printf("%3d  %s (%s, %s)\n", d.ID, d.Title, d.FileType, d.Size)
		}
	case *[]model.CommitteeMember:
		for _, c := range *v {
			fmt.Printf("%3d  %s - %s\n", c.ID, c.Name, c.Role)
		}
	case *[]model.Menu:
		for _, m := range *v {
			fmt.Printf("%3d  %-12s %s\n", m.OrderNo, m.Title, m.Path)
		}
	case *[]model.InformationBlock:
		for _, b := range *v {
			fmt.Printf("%s\n  %s\n", b.Title, b.Content)
		}
	case *[]model.CarouselSlide:
		for _, s := range *v {
			fmt.Printf("%3d  %s\n", s.ID, s.Title)
		}
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Session response type (matches API)
type Session = response.SessionResponse

// SignupResult is the outcome of a signup
type SignupResult = gateway.Result

// Access is the outcome of a guard check
type Access = response.AccessResponse

// Profile is the member's stored profile
type Profile = model.Profile

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printSession(s Session) {
	if !s.Authenticated {
		fmt.Println("Not signed in")
		return
	}
	if s.Identity == nil {
		fmt.Println("Signed in")
		return
	}
	fmt.Printf("Signed in as %s (%d)\n", s.Identity.Name, s.Identity.UserID)
	if s.Identity.Email != "" {
		fmt.Printf("Email: %s\n", s.Identity.Email)
	}
	if s.Identity.IsAdmin {
		fmt.Println("Role: admin")
	}
}

func (o *Output) printSignupResult(r SignupResult) {
	fmt.Println(firstNonEmpty(r.Message, "Signup failed"))
	for field, msg := range r.FieldErrors {
		fmt.Printf("  %s: %s\n", field, msg)
	}
}

func (o *Output) printAccess(a Access) {
	if a.Admitted {
		fmt.Printf("%s: admitted\n", a.Capability)
		return
	}
	fmt.Printf("%s: %s -> %s\n", a.Capability, a.Decision, a.Location)
}

func (o *Output) printProfile(p Profile) {
	fmt.Printf("Name: %s\n", p.Name)
	fields := []struct{ label, value string }{
		{"Email", p.Email},
		{"Mobile", p.Mobile},
		{"Address", p.Address},
		{"Gender", p.Gender},
		{"Community", p.CommunityInfo},
		{"Photo", p.ProfilePhotoPath},
	}
	if p.DOB != nil {
		dob, _, _ := strings.Cut(*p.DOB, "T")
		fields = append(fields, struct{ label, value string }{"Born", dob})
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Printf("%s: %s\n", f.label, f.value)
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

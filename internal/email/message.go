// Package email relays contact and appointment form submissions to the
// transactional email provider.
package email

import (
	"bytes"
	"errors"
	"html/template"
	"strings"
)

const (
	TypeAppointment = "appointment"
	TypeContact     = "contact"

	appointmentSubject = "New Appointment Request - Interior Villa"
	contactSubject     = "New Contact Form Submission - Interior Villa"
)

// InvalidTypeMessage is the client-facing text for ErrInvalidType.
const InvalidTypeMessage = "Invalid request: type field must be 'appointment' or 'contact'"

var ErrInvalidType = errors.New("email: type must be appointment or contact")

// Request is the form payload posted by the website.
type Request struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Mobile  string `json:"mobile"`
	Address string `json:"address"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Message is a rendered email ready for the provider.
type Message struct {
	Subject string
	HTML    string
}

const layout = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f9f9f9;">
  <div style="background-color: #75BF44; padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">{{.Heading}}</h1>
  </div>
  <div style="background-color: white; padding: 30px; margin-top: 20px; border-radius: 5px;">
    <h2 style="color: #333; border-bottom: 2px solid #75BF44; padding-bottom: 10px;">{{.Section}}</h2>
    <table style="width: 100%; margin-top: 20px;">
      {{- range $i, $row := .Rows}}
      <tr>
        <td style="padding: 10px 0; color: #666; font-weight: bold;{{if eq $i 0}} width: 120px;{{end}}">{{$row.Label}}:</td>
        <td style="padding: 10px 0; color: #333;">{{$row.Value}}</td>
      </tr>
      {{- end}}
    </table>
    {{- if .ShowMessage}}
    <div style="margin-top: 30px;">
      <h3 style="color: #333; margin-bottom: 10px;">Message:</h3>
      <div style="background-color: #f5f5f5; padding: 15px; border-left: 4px solid #75BF44; border-radius: 3px;">
        <p style="color: #333; line-height: 1.6; margin: 0;">{{.Message}}</p>
      </div>
    </div>
    {{- end}}
  </div>
  <div style="margin-top: 20px; text-align: center; color: #666; font-size: 12px;">
    <p>This is an automated message from Interior Villa BD website.</p>
  </div>
</div>
`

var bodyTmpl = template.Must(template.New("email").Parse(layout))

type row struct {
	Label string
	Value string
}

type body struct {
	Heading string
	Section string
	Rows    []row

	ShowMessage bool
	Message     string
}

// Render builds the subject and escaped HTML body for a submission.
func (r Request) Render() (Message, error) {
	var (
		subject string
		b       body
	)

	switch r.Type {
	case TypeAppointment:
		subject = appointmentSubject
		b = body{
			Heading: "New Appointment Request",
			Section: "Client Details",
			Rows: []row{
				{"Name", r.Name},
				{"Mobile", r.Mobile},
				{"Address", r.Address},
			},
		}
	case TypeContact:
		subject = r.Subject
		if strings.TrimSpace(subject) == "" {
			subject = contactSubject
		}
		rows := []row{{"Name", r.Name}, {"Email", r.Email}}
		if r.Mobile != "" {
			rows = append(rows, row{"Mobile", r.Mobile})
		}
		b = body{
			Heading: "New Contact Message",
			Section: "Contact Details",
			Rows:    rows,

			ShowMessage: true,
			Message:     r.Message,
		}
	default:
		return Message{}, ErrInvalidType
	}

	var buf bytes.Buffer
	if err := bodyTmpl.Execute(&buf, b); err != nil {
		return Message{}, err
	}
	return Message{Subject: subject, HTML: buf.String()}, nil
}

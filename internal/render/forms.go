package render

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"soumiSpace/internal/content"
)

// ErrNoForm 表示粘贴的代码中找不到 <form>。
var ErrNoForm = errors.New("autoresponder code contains no form")

const defaultGoogleFormHeight = 800

// autoresponderPolicy 只保留表单相关的元素与属性。
func autoresponderPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("form", "input", "textarea", "select", "option", "label", "button", "div", "span", "p")
	p.AllowAttrs("action", "method").OnElements("form")
	p.AllowAttrs("name", "type", "value", "placeholder", "required").OnElements("input", "textarea", "select", "button")
	p.AllowAttrs("value").OnElements("option")
	p.AllowAttrs("for").OnElements("label")
	return p
}

// ParseAutoresponder 从服务商表单代码中提取提交地址、方法与字段。脚本等内容先被清洗掉。
func ParseAutoresponder(code string) (*content.ParsedForm, error) {
	return parseAutoresponder(autoresponderPolicy(), code)
}

func parseAutoresponder(policy *bluemonday.Policy, code string) (*content.ParsedForm, error) {
	clean := policy.Sanitize(code)
	doc, err := html.Parse(strings.NewReader(clean))
	if err != nil {
		return nil, err
	}
	form := findElement(doc, "form")
	if form == nil {
		return nil, ErrNoForm
	}
	out := &content.ParsedForm{
		Action: getAttr(form, "action"),
		Method: strings.ToLower(getAttr(form, "method")),
		Fields: []content.ParsedField{},
	}
	if out.Method == "" {
		out.Method = "post"
	}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "input", "textarea", "select":
				if f, ok := parsedField(n); ok {
					out.Fields = append(out.Fields, f)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(form)
	return out, nil
}

func parsedField(n *html.Node) (content.ParsedField, bool) {
	name := getAttr(n, "name")
	if name == "" {
		return content.ParsedField{}, false
	}
	typ := getAttr(n, "type")
	switch n.Data {
	case "textarea":
		typ = "textarea"
	case "select":
		typ = "select"
	}
	if typ == "" {
		typ = "text"
	}
	if typ == "submit" || typ == "button" || typ == "image" {
		return content.ParsedField{}, false
	}
	_, required := findAttr(n, "required")
	return content.ParsedField{
		Name:        name,
		Type:        typ,
		Value:       getAttr(n, "value"),
		Placeholder: getAttr(n, "placeholder"),
		Required:    required,
	}, true
}

func findAttr(n *html.Node, key string) (string, bool) {
	for _, at := range n.Attr {
		if at.Key == key {
			return at.Val, true
		}
	}
	return "", false
}

func findElement(root *html.Node, tag string) *html.Node {
	if root.Type == html.ElementNode && root.Data == tag {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// MailtoURL 生成 mailto 链接，空格编码为 %20。
func MailtoURL(recipient, subject, body string) string {
	var params []string
	if subject != "" {
		params = append(params, "subject="+mailtoEscape(subject))
	}
	if body != "" {
		params = append(params, "body="+mailtoEscape(body))
	}
	out := "mailto:" + strings.TrimSpace(recipient)
	if len(params) > 0 {
		out += "?" + strings.Join(params, "&")
	}
	return out
}

func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (p *Page) renderForm(ct *content.Contact) *html.Node {
	fc := p.formConfig
	typ := ct.FormType
	if fc != nil && fc.Type != "" {
		typ = fc.Type
	}
	if fc == nil {
		fc = content.Defaults().FormConfig
	}

	switch typ {
	case content.FormTypeEmail:
		recipient := fc.Email.Recipient
		if recipient == "" {
			recipient = ct.Email
		}
		if recipient == "" {
			return defaultForm()
		}
		return emailForm(recipient, fc.Email.Subject)
	case content.FormTypeAutoresponder:
		parsed := fc.Autoresponder.ParsedData
		if parsed == nil && strings.TrimSpace(fc.Autoresponder.Code) != "" {
			parsed, _ = parseAutoresponder(p.policy, fc.Autoresponder.Code)
		}
		if parsed == nil || safeURL(parsed.Action) == "" {
			return defaultForm()
		}
		return autoresponderForm(parsed)
	case content.FormTypeGoogleForm, content.FormTypeGoogle:
		src := safeURL(fc.GoogleForm.URL)
		if src == "" {
			return defaultForm()
		}
		height := fc.GoogleForm.Height
		if height <= 0 {
			height = defaultGoogleFormHeight
		}
		return el("iframe", attrs(
			a("class", "google-form"),
			a("src", src),
			a("width", "100%"),
			a("height", strconv.Itoa(height)),
			a("frameborder", "0"),
			a("marginheight", "0"),
			a("marginwidth", "0"),
		), "Loading…")
	case content.FormTypeCustom:
		if len(fc.Custom.Fields) == 0 {
			return defaultForm()
		}
		return customForm(fc.Custom.Fields)
	}
	return defaultForm()
}

func emailForm(recipient, subject string) *html.Node {
	form := el("form", attrs(
		a("class", "contact-form"),
		a("data-form-type", content.FormTypeEmail),
		a("action", MailtoURL(recipient, subject, "")),
		a("method", "post"),
		a("enctype", "text/plain"),
	))
	appendAll(form,
		formGroup("name", "text", "Your Name", true),
		formGroup("email", "email", "Your Email", true),
		formGroup("subject", "text", "Subject", false),
		formGroup("message", "textarea", "Message", true),
		submitButton(),
	)
	return form
}

func autoresponderForm(parsed *content.ParsedForm) *html.Node {
	method := parsed.Method
	if method == "" {
		method = "post"
	}
	form := el("form", attrs(
		a("class", "contact-form"),
		a("data-form-type", content.FormTypeAutoresponder),
		a("action", safeURL(parsed.Action)),
		a("method", method),
	))
	for _, f := range parsed.Fields {
		if f.Type == "hidden" {
			form.AppendChild(el("input", attrs(a("type", "hidden"), a("name", f.Name), a("value", f.Value))))
			continue
		}
		form.AppendChild(el("div", attrs(a("class", "form-group")), control(f.Name, f.Type, f.Placeholder, f.Value, f.Required)))
	}
	form.AppendChild(submitButton())
	return form
}

func customForm(fields []content.FormField) *html.Node {
	form := el("form", attrs(a("class", "contact-form"), a("data-form-type", content.FormTypeCustom)))
	for _, f := range fields {
		form.AppendChild(formGroup(f.Name, f.Type, f.Label, f.Required))
	}
	form.AppendChild(submitButton())
	return form
}

func defaultForm() *html.Node {
	form := el("form", attrs(a("class", "contact-form"), a("data-form-type", "default")))
	appendAll(form,
		formGroup("name", "text", "Your Name", true),
		formGroup("email", "email", "Your Email", true),
		formGroup("message", "textarea", "Message", true),
		submitButton(),
	)
	return form
}

func formGroup(name, typ, label string, required bool) *html.Node {
	return el("div", attrs(a("class", "form-group")),
		el("label", attrs(a("for", "field-"+name)), label),
		control(name, typ, label, "", required),
	)
}

func control(name, typ, placeholder, value string, required bool) *html.Node {
	list := attrs(a("id", "field-"+name), a("name", name), a("placeholder", placeholder))
	var n *html.Node
	if typ == "textarea" {
		n = el("textarea", append(list, a("rows", "5")), value)
	} else {
		if typ == "" {
			typ = "text"
		}
		n = el("input", append(list, a("type", typ), a("value", value)))
	}
	if required {
		n.Attr = append(n.Attr, html.Attribute{Key: "required"})
	}
	return n
}

func submitButton() *html.Node {
	return el("button", attrs(a("type", "submit"), a("class", "btn btn-primary")), "Send Message")
}

package imc

import (
	"encoding/xml"
	"fmt"
)

// element is one node of a controller response document. The API identifies
// everything through attributes, so children and attrs are kept generic.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []element  `xml:",any"`
}

func (e element) attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Object is a managed-object snapshot: its class, object path and flat
// attribute set. Hierarchical queries populate Children.
type Object struct {
	Class      string            `json:"class"`
	DN         string            `json:"dn,omitempty"`
	Attributes map[string]string `json:"attributes"`
	Children   []Object          `json:"children,omitempty"`
}

// Attr returns the named attribute or "" when absent.
func (o Object) Attr(name string) string {
	return o.Attributes[name]
}

// Response is a parsed controller reply. Objects holds the contents of the
// outConfig/outConfigs container in document order. Cookie is only set on
// session replies.
type Response struct {
	Kind    string   `json:"kind"`
	Objects []Object `json:"objects"`
	Cookie  string   `json:"-"`
}

// ObjectsOf filters the response objects by class name.
func (r *Response) ObjectsOf(class string) []Object {
	var matched []Object
	for _, obj := range r.Objects {
		if obj.Class == class {
			matched = append(matched, obj)
		}
	}
	return matched
}

// First returns the first object of the given class.
func (r *Response) First(class string) (Object, bool) {
	for _, obj := range r.Objects {
		if obj.Class == class {
			return obj, true
		}
	}
	return Object{}, false
}

func parseResponse(data []byte) (*Response, error) {
	var root element
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if root.XMLName.Local == "error" {
		return nil, &APIError{Code: root.attr("errorCode"), Description: root.attr("errorDescr")}
	}
	if code := root.attr("errorCode"); code != "" {
		return nil, &APIError{Code: code, Description: root.attr("errorDescr")}
	}

	resp := &Response{Kind: root.XMLName.Local, Cookie: root.attr("outCookie")}
	for _, child := range root.Children {
		if child.XMLName.Local == "outConfigs" || child.XMLName.Local == "outConfig" {
			for _, node := range child.Children {
				resp.Objects = append(resp.Objects, toObject(node))
			}
		}
	}
	return resp, nil
}

func toObject(node element) Object {
	obj := Object{Class: node.XMLName.Local, Attributes: make(map[string]string, len(node.Attrs))}
	for _, a := range node.Attrs {
		obj.Attributes[a.Name.Local] = a.Value
	}
	obj.DN = obj.Attributes["dn"]
	for _, child := range node.Children {
		obj.Children = append(obj.Children, toObject(child))
	}
	return obj
}

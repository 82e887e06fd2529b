package model

import (
	"path"
	"strings"
)

const DeniedErrorCode = "AccessDenied"

// Paths builds dashboard URLs under the configured base path.
type Paths struct {
	base string
}

func NewPaths(base string) Paths {
	return Paths{base: path.Join("/", base)}
}

// Join returns elem mounted under the base path.
func (p Paths) Join(elem string) string {
	return path.Join(p.base, elem)
}

// Home is the dashboard index. It keeps the trailing slash gin routes it under.
func (p Paths) Home() string {
	return strings.TrimSuffix(p.base, "/") + "/"
}

func (p Paths) Login() string { return p.Join("/login") }

func (p Paths) Denied() string { return p.Login() + "?error=" + DeniedErrorCode }

func (p Paths) Auth() string { return p.Join("/auth") }

func (p Paths) API() string { return p.Join("/api/sms") }

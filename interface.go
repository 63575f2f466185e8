// Copyright 2024 The hardwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hardwire

import (
	"net/url"

	"github.com/hardwire-http/hardwire/request"
)

// Doer is the interface that wraps the basic Do method.
//
// Do executes an HTTP request plan and returns the final execution
// state (and error, if any). Client implements the Doer interface,
// and any other Doer implementation must behave substantially the
// same as Client.Do.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Doer interface {
	Do(p *request.Plan) (*request.Execution, error)
}

// Getter is the interface that wraps the basic Get method.
//
// Get creates an HTTP request plan to issue a GET to the specified
// URL, executes the plan, and returns the final execution state (and
// error, if any). Client implements the Getter interface, and any
// other Getter implementation must behave substantially the same as
// Client.Get.
//
// Any Doer can be used to emulate a Getter via the Get function.
type Getter interface {
	Get(url string) (*request.Execution, error)
}

// Header is the interface that wraps the basic Head method.
//
// Head creates an HTTP request plan to issue a HEAD to the specified
// URL, executes the plan, and returns the final execution state (and
// error, if any).
type Header interface {
	Head(url string) (*request.Execution, error)
}

// Poster is the interface that wraps the basic Post method.
//
// Post creates an HTTP request plan to issue a POST to the specified
// URL, executes the plan, and returns the final execution state (and
// error, if any).
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.NewPlan and request.BodyBytes,
// namely: string; []byte; io.Reader; and io.ReadCloser.
type Poster interface {
	Post(url, contentType string, body interface{}) (*request.Execution, error)
}

// FormPoster is the interface that wraps the basic PostForm method.
//
// PostForm creates an HTTP request plan to issue a form POST to the
// specified URL, executes the plan, and returns the final execution
// state (and error, if any).
//
// The request plan body is set to the URL-encoded keys and values
// from data, and the content type is set to
// application/x-www-form-urlencoded.
type FormPoster interface {
	PostForm(url string, data url.Values) (*request.Execution, error)
}

// Putter is the interface that wraps the basic Put method. The body
// parameter follows the same rules as Poster.
type Putter interface {
	Put(url, contentType string, body interface{}) (*request.Execution, error)
}

// Deleter is the interface that wraps the basic Delete method.
type Deleter interface {
	Delete(url string) (*request.Execution, error)
}

// Patcher is the interface that wraps the basic Patch method. The
// body parameter follows the same rules as Poster.
type Patcher interface {
	Patch(url, contentType string, body interface{}) (*request.Execution, error)
}

// Optioner is the interface that wraps the basic Options method.
type Optioner interface {
	Options(url string) (*request.Execution, error)
}

// IdleCloser is the interface that wraps the basic
// CloseIdleConnections method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections which were opened by previous requests but
// are now sitting idle in a "keep-alive" state. It does not interrupt
// any connections currently in use.
//
// If the underlying implementation does not support this ability,
// CloseIdleConnections does nothing.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups the basic Do method, the verb
// methods, and CloseIdleConnections.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Executor interface {
	Doer
	Getter
	Header
	Poster
	FormPoster
	Putter
	Deleter
	Patcher
	Optioner
	IdleCloser
}

// Get uses the specified Doer to issue a GET to the specified URL,
// using the same policies as d.Do.
//
// To make a request plan with custom headers, use request.NewPlan and
// d.Do.
func Get(d Doer, url string) (*request.Execution, error) {
	return bodiless(d, "GET", url)
}

// Head uses the specified Doer to issue a HEAD to the specified URL,
// using the same policies as d.Do.
func Head(d Doer, url string) (*request.Execution, error) {
	return bodiless(d, "HEAD", url)
}

// Delete uses the specified Doer to issue a DELETE to the specified
// URL, using the same policies as d.Do.
func Delete(d Doer, url string) (*request.Execution, error) {
	return bodiless(d, "DELETE", url)
}

// Options uses the specified Doer to issue an OPTIONS to the
// specified URL, using the same policies as d.Do.
func Options(d Doer, url string) (*request.Execution, error) {
	return bodiless(d, "OPTIONS", url)
}

func bodiless(d Doer, method, url string) (*request.Execution, error) {
	p, err := request.NewPlan(method, url, nil)
	if err != nil {
		return nil, err
	}
	return d.Do(p)
}

// Post uses the specified Doer to issue a POST to the specified URL,
// using the same policies as d.Do.
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.NewPlan and request.BodyBytes,
// namely: string; []byte; io.Reader; and io.ReadCloser.
//
// To make a request plan with custom headers, use request.NewPlan and
// d.Do.
func Post(d Doer, url, contentType string, body interface{}) (*request.Execution, error) {
	return withBody(d, "POST", url, contentType, body)
}

// Put uses the specified Doer to issue a PUT to the specified URL,
// using the same policies as d.Do. The body parameter follows the
// same rules as Post.
func Put(d Doer, url, contentType string, body interface{}) (*request.Execution, error) {
	return withBody(d, "PUT", url, contentType, body)
}

// Patch uses the specified Doer to issue a PATCH to the specified
// URL, using the same policies as d.Do. The body parameter follows
// the same rules as Post.
func Patch(d Doer, url, contentType string, body interface{}) (*request.Execution, error) {
	return withBody(d, "PATCH", url, contentType, body)
}

func withBody(d Doer, method, url, contentType string, body interface{}) (*request.Execution, error) {
	b, err := request.BodyBytes(body)
	if err != nil {
		return nil, err
	}
	p, err := request.NewPlan(method, url, b)
	if err != nil {
		return nil, err
	}
	p.Header.Set("Content-Type", contentType)
	return d.Do(p)
}

// PostForm uses the specified Doer to issue a POST to the specified
// URL, with data's keys and values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
// To set other headers, use request.NewPlan and d.Do.
func PostForm(d Doer, url string, data url.Values) (*request.Execution, error) {
	return Post(d, url, "application/x-www-form-urlencoded", data.Encode())
}

// Inflate converts any non-nil Doer into an Executor. This may be
// helpful for interop across library boundaries, i.e. if code that
// only has access to a Doer needs to call a function that requires an
// Executor.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("hardwire: nil doer")
	}

	if e, ok := d.(Executor); ok {
		return e
	}

	return inflated{d}
}

type inflated struct {
	doer Doer
}

func (i inflated) Do(p *request.Plan) (*request.Execution, error) {
	return i.doer.Do(p)
}

func (i inflated) Get(url string) (*request.Execution, error) {
	return Get(i.doer, url)
}

func (i inflated) Head(url string) (*request.Execution, error) {
	return Head(i.doer, url)
}

func (i inflated) Post(url, contentType string, body interface{}) (*request.Execution, error) {
	return Post(i.doer, url, contentType, body)
}

func (i inflated) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(i.doer, url, data)
}

func (i inflated) Put(url, contentType string, body interface{}) (*request.Execution, error) {
	return Put(i.doer, url, contentType, body)
}

func (i inflated) Delete(url string) (*request.Execution, error) {
	return Delete(i.doer, url)
}

func (i inflated) Patch(url, contentType string, body interface{}) (*request.Execution, error) {
	return Patch(i.doer, url, contentType, body)
}

func (i inflated) Options(url string) (*request.Execution, error) {
	return Options(i.doer, url)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

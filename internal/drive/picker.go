package drive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"google.golang.org/api/googleapi"
)

const pickerPageSize = 50

// Chooser presents candidate files and returns the selected one, or nil when the
// user picked nothing.
type Chooser interface {
	Choose(ctx context.Context, files []*RemoteFile) (*RemoteFile, error)
}

// APIPicker lists Drive files of the allowed types and lets a Chooser select one.
type APIPicker struct {
	services ServiceFactory
	chooser  Chooser
}

func NewAPIPicker(services ServiceFactory, chooser Chooser) *APIPicker {
	return &APIPicker{services: services, chooser: chooser}
}

func (p *APIPicker) Pick(ctx context.Context, req PickRequest) (*RemoteFile, error) {
	svc, err := p.services.Service(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	call := svc.Files.List().
		Q(mimeQuery(req.MimeTypes)).
		Fields("files(id, name, mimeType, size)").
		OrderBy("modifiedTime desc").
		PageSize(pickerPageSize).
		Context(ctx)

	var opts []googleapi.CallOption
	if req.APIKey != "" {
		opts = append(opts, googleapi.QueryParameter("key", req.APIKey))
	}
	list, err := call.Do(opts...)
	if err != nil {
		return nil, classify(err)
	}

	files := make([]*RemoteFile, 0, len(list.Files))
	for _, f := range list.Files {
		files = append(files, &RemoteFile{ID: f.Id, Name: f.Name, MimeType: f.MimeType, Size: f.Size})
	}
	if len(files) == 0 {
		return nil, ErrPickerCancelled
	}
	chosen, err := p.chooser.Choose(ctx, files)
	if err != nil {
		return nil, err
	}
	if chosen == nil {
		return nil, ErrPickerCancelled
	}
	return chosen, nil
}

func mimeQuery(types []string) string {
	clauses := make([]string, 0, len(types))
	for _, t := range types {
		clauses = append(clauses, fmt.Sprintf("mimeType = '%s'", t))
	}
	q := "trashed = false"
	if len(clauses) > 0 {
		q = "(" + strings.Join(clauses, " or ") + ") and " + q
	}
	return q
}

// TerminalChooser prompts on a terminal for a file number.
type TerminalChooser struct {
	In  io.Reader
	Out io.Writer
}

func (c TerminalChooser) Choose(ctx context.Context, files []*RemoteFile) (*RemoteFile, error) {
	header := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)

	header.Fprintln(c.Out, "Google Drive files:")
	for i, f := range files {
		fmt.Fprintf(c.Out, "  %2d) %s ", i+1, f.Name)
		dim.Fprintf(c.Out, "(%s)\n", f.MimeType)
	}

	scanner := bufio.NewScanner(c.In)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprint(c.Out, "Select a file number (empty to cancel): ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("failed to read selection: %w", err)
			}
			return nil, nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.EqualFold(line, "q") {
			return nil, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(files) {
			color.New(color.FgYellow).Fprintf(c.Out, "Enter a number between 1 and %d.\n", len(files))
			continue
		}
		return files[n-1], nil
	}
}

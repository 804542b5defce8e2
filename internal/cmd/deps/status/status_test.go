package status

import (
	"context"
	"errors"
	"testing"

	"github.com/schmitthub/fixture/internal/cmdutil"
	"github.com/schmitthub/fixture/internal/compose"
	"github.com/schmitthub/fixture/internal/iostreams/iostreamstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	services []compose.Service
	err      error
}

func (f *fakeLister) ProjectName() string { return "pitaya-servers" }

func (f *fakeLister) Status(context.Context) ([]compose.Service, error) {
	return f.services, f.err
}

func TestNewCmdStatus(t *testing.T) {
	tio := iostreamstest.New()
	f := &cmdutil.Factory{IOStreams: tio.IOStreams}

	var gotOpts *StatusOptions
	cmd := NewCmdStatus(f, func(_ context.Context, opts *StatusOptions) error {
		gotOpts = opts
		return nil
	})

	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	require.NotNil(t, gotOpts)
	assert.Equal(t, tio.IOStreams, gotOpts.IOStreams)
}

func TestStatusRun(t *testing.T) {
	tests := []struct {
		name       string
		lister     *fakeLister
		wantErr    bool
		wantOut    []string
		wantErrOut []string
	}{
		{
			name:       "stopped",
			lister:     &fakeLister{},
			wantErrOut: []string{"STOPPED", "fixture deps up"},
		},
		{
			name: "running",
			lister: &fakeLister{services: []compose.Service{
				{Name: "pitaya-servers-redis-1", State: "running", Status: "Up 3 minutes"},
				{Name: "pitaya-servers-nats-1", State: "running", Status: "Up 3 minutes"},
			}},
			wantOut:    []string{"NAME", "pitaya-servers-redis-1", "pitaya-servers-nats-1", "Up 3 minutes"},
			wantErrOut: []string{"Dependencies (pitaya-servers): RUNNING"},
		},
		{
			name: "partial",
			lister: &fakeLister{services: []compose.Service{
				{Name: "pitaya-servers-redis-1", State: "running"},
				{Name: "pitaya-servers-nats-1", State: "exited", Status: "Exited (1)"},
			}},
			wantOut:    []string{"exited", "Exited (1)"},
			wantErrOut: []string{"1/2 RUNNING"},
		},
		{
			name:    "daemon error",
			lister:  &fakeLister{err: errors.New("docker daemon unreachable")},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tio := iostreamstest.New()
			opts := &StatusOptions{
				IOStreams:    tio.IOStreams,
				Dependencies: func() (Lister, error) { return tt.lister, nil },
			}

			err := statusRun(context.Background(), opts)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, s := range tt.wantOut {
				assert.Contains(t, tio.OutBuf.String(), s)
			}
			for _, s := range tt.wantErrOut {
				assert.Contains(t, tio.ErrBuf.String(), s)
			}
		})
	}
}

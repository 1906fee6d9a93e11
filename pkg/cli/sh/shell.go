package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/ibus.go/pkg/ibus"
	"github.com/robotalks/ibus.go/pkg/mqtt"
	"github.com/robotalks/ibus.go/pkg/msgs"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	Range       ibus.ChannelRange

	Shell  *ishell.Shell
	Config *Config
	Conn   *Conn

	queue *mqtt.Queue
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "

	connectTimeout    = 5 * time.Second
	statusWaitTimeout = time.Second
	defaultWatchCount = 10
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&StatusCmd,
		&WatchCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Range:       ibus.DefaultChannelRange,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Queue connects the broker on first use.
func (s *Shell) Queue() (*mqtt.Queue, error) {
	if s.queue != nil {
		return s.queue, nil
	}
	q, err := mqtt.NewQueueFromURL(s.Config.MQTTBrokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker URL: %w", err)
	}
	token := q.Connect()
	if !token.WaitTimeout(connectTimeout) {
		q.Close()
		return nil, fmt.Errorf("connect %s timeout", s.Config.MQTTBrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", s.Config.MQTTBrokerURL, err)
	}
	s.queue = q
	return q, nil
}

// Discover discovers receivers.
func (s *Shell) Discover(filter func(mqtt.Info) bool) ([]mqtt.Info, error) {
	q, err := s.Queue()
	if err != nil {
		return nil, err
	}
	infoList, err := mqtt.Discover(context.Background(), q, s.Config.DiscoverTimeout)
	if err != nil || filter == nil {
		return infoList, err
	}
	items := make([]mqtt.Info, 0, len(infoList))
	for _, info := range infoList {
		if filter(info) {
			items = append(items, info)
		}
	}
	return items, nil
}

// Select discovers receivers and asks for a choice.
func (s *Shell) Select(filter func(mqtt.Info) bool) (*mqtt.Info, error) {
	infoList, err := s.Discover(filter)
	if err != nil || len(infoList) == 0 {
		return nil, err
	}
	var index int
	if len(infoList) > 1 {
		if !s.Interactive {
			return nil, fmt.Errorf("more than 1 receivers discovered in non-interactive mode")
		}
		items := make([]string, len(infoList))
		for n, info := range infoList {
			items[n] = FormatInfo(info)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
	}
	if index < 0 {
		return nil, nil
	}
	return &infoList[index], nil
}

// Connect watches receiver with ref.
func (s *Shell) Connect(ref mqtt.Ref) error {
	if !ref.IsValid() {
		return fmt.Errorf("invalid receiver %q", ref.Name())
	}
	q, err := s.Queue()
	if err != nil {
		return err
	}
	s.Disconnect()
	conn := newConn(ref)
	conn.subs = mqtt.Watch(q, ref, conn.update)
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", ref.Name()))
	return nil
}

// Disconnect stops watching current receiver.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Close disconnects the broker.
func (s *Shell) Close() {
	s.Disconnect()
	if s.queue != nil {
		s.queue.Close()
		s.queue = nil
	}
}

// Println prints v in JSON if OutputJSON is set, otherwise text.
func (s *Shell) Println(c *ishell.Context, v interface{}, text string) {
	if !s.OutputJSON {
		c.Print(text)
		if len(text) == 0 || text[len(text)-1] != '\n' {
			c.Println()
		}
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if s.AutoConnect && s.Config.Ref.IsValid() {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Ref.Name())
		}
		if err := s.Connect(s.Config.Ref); err != nil {
			glog.Exitf("connect %q failed: %v", s.Config.Ref.Name(), err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exit(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Exit("command expected")
}

var (
	// DiscoverCmd discovers receivers.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "list receivers",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infoList, err := s.Discover(nil)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(infoList) == 0 {
					// in case infoList is nil, make it empty slice.
					infoList = []mqtt.Info{}
				}
				s.Println(c, infoList, "")
				return
			}
			if len(infoList) == 0 {
				c.Println("No receivers found")
				return
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a receiver.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TYPE [ID]]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var ref mqtt.Ref
			if len(c.Args) >= 2 {
				ref.Type, ref.ID = c.Args[0], c.Args[1]
			} else {
				var filter func(mqtt.Info) bool
				if len(c.Args) == 1 {
					filter = func(info mqtt.Info) bool {
						return info.Ref.Type == c.Args[0]
					}
				}
				info, err := s.Select(filter)
				if err != nil {
					c.Err(err)
					return
				}
				if info == nil {
					c.Err(fmt.Errorf("no receiver discovered"))
					return
				}
				ref = info.Ref
			}
			if err := s.Connect(ref); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current receiver.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// StatusCmd prints the latest status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"s"},
		Help:    "print receiver status",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			select {
			case <-s.Conn.StatusReady():
			case <-time.After(statusWaitTimeout):
				c.Err(fmt.Errorf("no status from %s", s.Conn.Ref.Name()))
				return
			}
			st := s.Conn.Status()
			s.Println(c, st, FormatStatus(st))
		}),
	}

	// WatchCmd prints channel values.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[COUNT] print channel values",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			count := defaultWatchCount
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n <= 0 {
					c.Err(fmt.Errorf("invalid COUNT %q", c.Args[0]))
					return
				}
				count = n
			}
			ch := make(chan *msgs.RCChannels, 1)
			stop := s.Conn.Watch(ch)
			defer stop()
			for i := 0; i < count; i++ {
				select {
				case m := <-ch:
					s.Println(c, m, FormatChannels(m, s.Range))
				case <-time.After(statusWaitTimeout):
					c.Err(fmt.Errorf("no channel data from %s", s.Conn.Ref.Name()))
					return
				}
			}
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	defer glog.Flush()
	New(NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}

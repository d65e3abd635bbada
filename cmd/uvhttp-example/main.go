/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Command uvhttp-example embeds the uvhttp server library into a small
// runnable program: an HTTP endpoint, a static file tree and a
// WebSocket echo route, wired from a key=value configuration file and
// the UVHTTP_* environment.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	libcfg "github.com/nabbar/uvhttp/config"
	"github.com/nabbar/uvhttp/http11"
	"github.com/nabbar/uvhttp/httpserver"
	"github.com/nabbar/uvhttp/logger"
	"github.com/nabbar/uvhttp/router"
	"github.com/nabbar/uvhttp/static"
	"github.com/nabbar/uvhttp/ws"
)

var (
	flagConfig string
	flagListen string
	flagStatic string
)

func main() {
	cmd := &cobra.Command{
		Use:   "uvhttp-example",
		Short: "Example embedding of the uvhttp server library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	cmd.Flags().StringVarP(&flagConfig, "config", "c", "", "key=value configuration file")
	cmd.Flags().StringVarP(&flagListen, "listen", "l", "127.0.0.1:8080", "host:port to bind")
	cmd.Flags().StringVarP(&flagStatic, "static", "s", "", "directory served under /static/")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ldr := libcfg.New("example", flagListen)
	if flagConfig != "" {
		ldr.SetConfigFile(flagConfig)
	}

	cfg, e := ldr.Load()
	if e != nil {
		return e
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lg := logger.New(ctx)
	defer func() { _ = lg.Close() }()

	lg.SetLevel(logger.Parse(cfg.LogLevel))
	if opt := cfg.LoggerOptions(); len(opt.LogFile) > 0 {
		if err := lg.SetOptions(opt); err != nil {
			return err
		}
	}

	srvCfg, e := cfg.ServerConfig()
	if e != nil {
		return e
	}

	srv, err := httpserver.New(srvCfg, func() logger.Logger { return lg })
	if err != nil {
		return err
	}

	srv.Router().AddRoute("/hello", func(req *http11.Request) *router.Response {
		resp := router.NewResponse(true)
		resp.SetStatus(200)
		resp.SetHeader("Content-Type", "text/plain; charset=utf-8")
		resp.SetBody([]byte("Hello"))
		return resp
	})

	if flagStatic != "" {
		files := static.New(flagStatic)
		srv.Router().AddRoute("/static/*", files.Handler("example", "/static"))
	}

	srv.HandleWebsocket("/ws", ws.Handlers{
		OnMessage: func(c *ws.Conn, opcode ws.Opcode, payload []byte) {
			_ = c.WriteMessage(opcode, payload)
		},
		OnError: func(c *ws.Conn, err error) {
			lg.Warning("websocket error on %s", err, c.RemoteAddr())
		},
	})

	if err := srv.Start(ctx); err != nil {
		return err
	}

	lg.Info("listening on %s", nil, srv.GetBindable())

	<-ctx.Done()

	return srv.Stop(context.Background())
}

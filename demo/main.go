// Command demo runs a single process that both serves and connects to one
// WebSocket endpoint, to show an encoded value tree containing a Future and
// a Sequence crossing the wire and being reconstructed on the other side.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	uuid "github.com/satori/go.uuid"

	"github.com/tidenly/streamcodec/async"
	"github.com/tidenly/streamcodec/stream"
	"github.com/tidenly/streamcodec/transport/wsstream"
)

var addr = flag.String("addr", "localhost:4000", "address to serve and dial")

func ok(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

var upgrader = websocket.Upgrader{}

// value builds the demo payload: a Future that resolves after a short
// delay, and a Sequence that yields a few items before returning.
func value() any {
	f := async.NewFuture(func(ctx context.Context) (any, error) {
		select {
		case <-time.After(200 * time.Millisecond):
			return "greetings from the server", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	seq := async.FromSlice([]any{"first", "second", "third"}, "that's all")
	return map[string]any{"greeting": f, "items": seq}
}

func handleConn(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print(err)
		return
	}
	conn := wsstream.New(ws)
	defer conn.Close()

	connID := uuid.NewV4().String()
	ctx := context.Background()
	it, err := stream.EncodeStream(ctx, value(), stream.Options{})
	if err != nil {
		log.Printf("conn %s: encode: %v", connID, err)
		return
	}
	if err := wsstream.SendAll(ctx, conn, it); err != nil {
		log.Printf("conn %s: send: %v", connID, err)
		return
	}
	log.Printf("conn %s: sent %d chunks (%d bytes)", connID, conn.Stats().MessagesSent(), conn.Stats().BytesSent())
}

func serve() {
	http.HandleFunc("/", handleConn)
	log.Printf("serving on %s", *addr)
	ok(http.ListenAndServe(*addr, nil))
}

func runClient() {
	url := fmt.Sprintf("ws://%s/", *addr)
	var ws *websocket.Conn
	var err error
	for i := 0; i < 20; i++ {
		ws, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	ok(err)
	conn := wsstream.New(ws)
	defer conn.Close()

	ctx := context.Background()
	v, err := stream.DecodeStream(ctx, conn, stream.DecodeOptions{})
	ok(err)
	m := v.(map[string]any)

	greeting, err := m["greeting"].(*async.Future).Await(ctx)
	ok(err)
	fmt.Printf("greeting: %v\n", greeting)

	items := m["items"].(*async.Sequence)
	for {
		item, done, ret, err := items.Next(ctx)
		ok(err)
		if done {
			fmt.Printf("items done: %v\n", ret)
			break
		}
		fmt.Printf("item: %v\n", item)
	}
}

func main() {
	flag.Parse()
	go serve()
	time.Sleep(50 * time.Millisecond)
	runClient()
}

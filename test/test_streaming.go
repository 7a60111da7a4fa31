package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/satriahrh/supportchat/adapters/relay"
	"github.com/satriahrh/supportchat/domain"
)

func main() {
	url := flag.String("url", "http://localhost:8080/api/chat", "relay chat endpoint")
	question := flag.String("q", "How do I reset my password?", "user turn to send")
	buffered := flag.Bool("buffered", false, "ask for a JSON reply instead of a stream")
	flag.Parse()

	fmt.Println("🚀 Starting relay streaming test...")

	client := relay.NewClient(*url)
	turns := []domain.Turn{{Role: domain.UserRole, Content: *question}}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *buffered {
		if err := completeOnce(ctx, client, turns); err != nil {
			log.Fatalf("Buffered request failed: %v", err)
		}
		return
	}
	if err := streamOnce(ctx, client, turns); err != nil {
		log.Fatalf("Streaming failed: %v", err)
	}
	fmt.Println("✅ Relay streaming test completed successfully!")
}

func streamOnce(ctx context.Context, client *relay.Client, turns []domain.Turn) error {
	startTime := time.Now()
	stream, err := client.Stream(ctx, turns)
	if err != nil {
		return err
	}
	defer stream.Close()

	var chunks, size int
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Println()
			return err
		}
		if chunks == 0 {
			fmt.Printf("⏱️  First chunk after %v\n", time.Since(startTime))
		}
		chunks++
		size += len(delta)
		fmt.Print(delta)
	}
	fmt.Println()
	fmt.Printf("📊 %d chunks, %d bytes in %v\n", chunks, size, time.Since(startTime))
	return nil
}

func completeOnce(ctx context.Context, client *relay.Client, turns []domain.Turn) error {
	startTime := time.Now()
	reply, err := client.Complete(ctx, turns)
	if err != nil {
		return err
	}
	fmt.Printf("⏱️  Request completed in %v\n", time.Since(startTime))
	fmt.Printf("📄 Reply: %s\n", reply)
	return nil
}

package main

import (
	"fmt"
	"log"
	"os"

	"eagain.net/go/vapidgen/internal/keysource"
	"eagain.net/go/vapidgen/internal/vapidkey"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix(os.Args[0] + ": ")

	var encoded string
	switch len(os.Args) {
	case 1:
		key, err := keysource.New().GenerateKey()
		if err != nil {
			log.Fatal(err)
		}
		e, err := vapidkey.Encode(key, vapidkey.DER)
		if err != nil {
			log.Fatal(err)
		}
		encoded = e.Private
	case 2:
		encoded = os.Args[1]
	default:
		log.Fatal("usage: describe-key [PRIVATE_KEY]")
	}

	key, err := vapidkey.ParsePrivateKey(encoded)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("private\t\t%v\n", key.D)
	for _, f := range []vapidkey.Format{vapidkey.DER, vapidkey.Raw} {
		e, err := vapidkey.Encode(key, f)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%v private\t%s\n", f, e.Private)
		fmt.Printf("%v public\t%s\n", f, e.Public)
	}
	fmt.Printf("tag\t\t%s\n", vapidkey.Tag(&key.PublicKey))
}

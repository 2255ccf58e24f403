package main

import (
	"log"

	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/cmd"
)

func main() {
	e := cmd.RootCmd.Execute()
	if e != nil {
		log.Fatal(e)
	}
}

package particle_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBorisSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Boris Pusher Suite")
}

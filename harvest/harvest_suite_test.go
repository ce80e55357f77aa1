package harvest_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestHarvest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Harvest Suite")
}

package datasource

import (
	"context"
	"fmt"

	"github.com/cloudsleuth/cloudsleuth/internal/config"
	"github.com/cloudsleuth/cloudsleuth/internal/timewindow"
)

// ComputeInstance describes one EC2 instance, located by its Name tag.
type ComputeInstance struct {
	cfg config.EC2Config
}

func NewComputeInstance(cfg config.EC2Config) *ComputeInstance {
	return &ComputeInstance{cfg: cfg}
}

func (s *ComputeInstance) Kind() Kind    { return KindEC2 }
func (s *ComputeInstance) Label() string { return fmt.Sprintf("ec2 instance %s", s.cfg.InstanceName) }
func (s *ComputeInstance) OrderNo() int  { return s.cfg.OrderNo }

func (s *ComputeInstance) Fetch(ctx context.Context, _ timewindow.Window, clients *Clients) (Fragment, error) {
	instances, err := clients.Compute.InstancesByName(ctx, s.cfg.InstanceName)
	if err != nil {
		return Fragment{}, WrapError(s.Label(), ReasonQueryFailed, err, "describe instances failed")
	}
	if len(instances) == 0 {
		return Fragment{}, NewError(s.Label(), ReasonNotFound,
			"unable to find EC2 instance with name: %s", s.cfg.InstanceName)
	}

	// Several instances can share a Name tag; the first one describes
	// the fleet member the prompt talks about.
	instance := instances[0]

	lines := []string{
		fmt.Sprintf("Instance name: [`%s`]", s.cfg.InstanceName),
		fmt.Sprintf("Instance type: [`%s`]", instance.InstanceType),
		fmt.Sprintf("Cpu core count: [%d]", instance.CoreCount),
		fmt.Sprintf("Cpu threads per core: [%d]", instance.ThreadsPerCore),
		fmt.Sprintf("State: [%s]", instance.State),
	}

	return Fragment{
		OrderNo: s.cfg.OrderNo,
		Title:   "EC2 Instance",
		Body:    fragmentBody(lines, ""),
	}, nil
}

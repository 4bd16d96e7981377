package e2e

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxClient wraps the official InfluxDB v2 client for the E2E suite,
// hiding token/org/bucket plumbing behind write, query and wait helpers.
type InfluxClient struct {
	url    string
	org    string
	bucket string
	token  string
	client influxdb2.Client
	write  api.WriteAPIBlocking
	query  api.QueryAPI
}

// NewInfluxClient creates a client for the given parameters. It assumes the
// server is already running and reachable.
func NewInfluxClient(url, org, bucket, token string) *InfluxClient {
	c := influxdb2.NewClient(url, token)
	return &InfluxClient{
		url:    url,
		org:    org,
		bucket: bucket,
		token:  token,
		client: c,
		write:  c.WriteAPIBlocking(org, bucket),
		query:  c.QueryAPI(org),
	}
}

// WritePoint writes one measurement with the provided tags and fields.
func (c *InfluxClient) WritePoint(ctx context.Context, measurement string, tags map[string]string, fields map[string]interface{}, ts time.Time) error {
	p := influxdb2.NewPoint(measurement, tags, fields, ts)
	return c.write.WritePoint(ctx, p)
}

// Query runs a Flux query and returns the raw result iterator. The caller
// iterates and closes it.
func (c *InfluxClient) Query(ctx context.Context, flux string) (*api.QueryTableResult, error) {
	return c.query.Query(ctx, flux)
}

// CountPoints runs a Flux query and returns how many rows it yields.
func (c *InfluxClient) CountPoints(ctx context.Context, flux string) (int, error) {
	res, err := c.Query(ctx, flux)
	if err != nil {
		return 0, err
	}
	defer res.Close()
	count := 0
	for res.Next() {
		count++
	}
	return count, res.Err()
}

// WaitForPoints polls the query until it yields at least n rows or the
// context expires. Sinks write asynchronously relative to the pass, so the
// suite needs a bounded wait rather than a fixed sleep.
func (c *InfluxClient) WaitForPoints(ctx context.Context, flux string, n int) (int, error) {
	var last int
	for {
		count, err := c.CountPoints(ctx, flux)
		if err == nil && count >= n {
			return count, nil
		}
		last = count
		select {
		case <-ctx.Done():
			return last, fmt.Errorf("got %d of %d points: %w", last, n, ctx.Err())
		case <-time.After(250 * time.Millisecond):
		}
	}
}

// SetupBucket ensures the organisation and bucket exist, creating them
// through the management API when missing.
func (c *InfluxClient) SetupBucket(ctx context.Context) error {
	orgAPI := c.client.OrganizationsAPI()
	org, err := orgAPI.FindOrganizationByName(ctx, c.org)
	if err != nil || org == nil {
		org, err = orgAPI.CreateOrganizationWithName(ctx, c.org)
		if err != nil {
			return fmt.Errorf("create org: %w", err)
		}
	}

	bucketAPI := c.client.BucketsAPI()
	buckets, err := bucketAPI.FindBucketsByOrgName(ctx, c.org)
	if err != nil {
		return err
	}
	if buckets != nil {
		for _, b := range *buckets {
			if b.Name == c.bucket {
				return nil
			}
		}
	}
	if _, err := bucketAPI.CreateBucketWithName(ctx, org, c.bucket); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Close releases the underlying client resources.
func (c *InfluxClient) Close() { c.client.Close() }

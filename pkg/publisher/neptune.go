package publisher

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ajitpratap0/databuilder/pkg/clients"
	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Neptune publisher settings.
const (
	NeptuneScope = "neptune"

	BucketKey          = "bucket_name"
	BasePathKey        = "base_s3_path"
	RegionKey          = "region"
	NeptuneEndpointKey = "neptune_endpoint"
	IAMRoleKey         = "iam_role_arn"
	SignRequestsKey    = "sign_requests"
	PollIntervalKey    = "status_poll_interval"
	LoadTimeoutKey     = "load_timeout"
	FailOnErrorKey     = "fail_on_error"
	ParallelismKey     = "parallelism"
	UploadPartSizeKey  = "upload_part_size"

	// HTTPKey holds clients.HTTPConfig overrides for loader API calls.
	HTTPKey = "http"
)

// Bulk loader job states.
const (
	loadCompleted  = "LOAD_COMPLETED"
	loadNotStarted = "LOAD_NOT_STARTED"
	loadInQueue    = "LOAD_IN_QUEUE"
	loadInProgress = "LOAD_IN_PROGRESS"
)

// uploader is the part of manager.Uploader the publisher uses.
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type loaderRequest struct {
	Source      string `json:"source"`
	Format      string `json:"format"`
	IAMRoleArn  string `json:"iamRoleArn"`
	Region      string `json:"region"`
	FailOnError string `json:"failOnError"`
	Parallelism string `json:"parallelism"`
	UpdateCard  string `json:"updateSingleCardinalityProperties"`
	Queue       string `json:"queueRequest"`
}

type loaderResponse struct {
	Status  string `json:"status"`
	Payload struct {
		LoadID        string `json:"loadId"`
		OverallStatus struct {
			Status         string `json:"status"`
			TotalRecords   int64  `json:"totalRecords"`
			TotalTimeSpent int64  `json:"totalTimeSpent"`
			ParsingErrors  int64  `json:"parsingErrors"`
			InsertErrors   int64  `json:"insertErrors"`
		} `json:"overallStatus"`
	} `json:"payload"`
}

// NeptunePublisher stages Neptune CSV files in S3 and runs the Neptune bulk
// loader on them, vertices first.
type NeptunePublisher struct {
	nodeDir  string
	relDir   string
	bucket   string
	basePath string
	region   string
	endpoint string
	request  loaderRequest
	poll     time.Duration
	timeout  time.Duration

	uploader    uploader
	client      *clients.HTTPClient
	signer      *v4.Signer
	credentials aws.CredentialsProvider
	now         func() time.Time
	logger      *zap.Logger

	uploaded []string
}

// Scope implements Publisher.
func (p *NeptunePublisher) Scope() string { return NeptuneScope }

// Init reads the staging and loader settings and builds the AWS clients.
func (p *NeptunePublisher) Init(ctx context.Context, cfg *config.Config) error {
	required := map[string]*string{
		NodeFilesDirKey:     &p.nodeDir,
		RelationFilesDirKey: &p.relDir,
		BucketKey:           &p.bucket,
		NeptuneEndpointKey:  &p.endpoint,
		IAMRoleKey:          &p.request.IAMRoleArn,
	}
	for key, dst := range required {
		v, err := cfg.RequireString(key)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, NeptuneScope)
		}
		*dst = v
	}
	p.endpoint = strings.TrimRight(p.endpoint, "/")
	p.basePath = strings.Trim(cfg.GetString(BasePathKey, "neptune"), "/")
	p.region = cfg.GetString(RegionKey, "us-east-1")
	p.poll = cfg.GetDuration(PollIntervalKey, 5*time.Second)
	p.timeout = cfg.GetDuration(LoadTimeoutKey, time.Hour)
	p.request.Format = "csv"
	p.request.Region = p.region
	p.request.FailOnError = strings.ToUpper(fmt.Sprint(cfg.GetBool(FailOnErrorKey, false)))
	p.request.Parallelism = cfg.GetString(ParallelismKey, "MEDIUM")
	p.request.UpdateCard = "TRUE"
	p.request.Queue = "TRUE"
	p.logger = logger.Get().With(zap.String("component", NeptuneScope))

	if p.now == nil {
		p.now = time.Now
	}
	if p.client == nil {
		httpCfg := clients.DefaultHTTPConfig()
		if err := cfg.Scope(HTTPKey).Unmarshal(httpCfg); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "invalid http settings")
		}
		p.client = clients.NewHTTPClient(httpCfg, p.logger)
	}

	sign := cfg.GetBool(SignRequestsKey, false)
	if p.uploader != nil && !sign {
		return nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(p.region))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to load aws configuration")
	}
	if p.uploader == nil {
		partSize := int64(cfg.GetInt(UploadPartSizeKey, 0))
		p.uploader = manager.NewUploader(s3.NewFromConfig(awsCfg), func(u *manager.Uploader) {
			if partSize > 0 {
				u.PartSize = partSize
			}
		})
	}
	if sign {
		p.signer = v4.NewSigner()
		p.credentials = awsCfg.Credentials
	}
	return nil
}

// Publish uploads and bulk-loads the node files, then the relationship files.
func (p *NeptunePublisher) Publish(ctx context.Context) error {
	run := p.now().UTC().Format("20060102T150405")
	for _, step := range []struct{ kind, dir string }{
		{"nodes", p.nodeDir},
		{"relationships", p.relDir},
	} {
		files, err := csvFiles(step.dir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			p.logger.Info("nothing to publish", zap.String("kind", step.kind))
			continue
		}
		prefix := path.Join(p.basePath, run, step.kind)
		for _, f := range files {
			if err := p.upload(ctx, prefix, f); err != nil {
				return err
			}
		}
		source := fmt.Sprintf("s3://%s/%s/", p.bucket, prefix)
		loadID, err := p.startLoad(ctx, source)
		if err != nil {
			return err
		}
		if err := p.waitLoad(ctx, loadID); err != nil {
			return err
		}
	}
	return nil
}

func (p *NeptunePublisher) upload(ctx context.Context, prefix, file string) error {
	f, err := os.Open(file) //nolint:gosec // G304: path comes from the configured directory
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to open "+file)
	}
	defer f.Close()

	key := path.Join(prefix, filepath.Base(file))
	out, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to upload to S3").WithDetail("key", key)
	}
	p.uploaded = append(p.uploaded, key)
	p.logger.Debug("uploaded", zap.String("key", key), zap.String("location", out.Location))
	return nil
}

// Uploaded returns the S3 keys written so far.
func (p *NeptunePublisher) Uploaded() []string { return p.uploaded }

func (p *NeptunePublisher) startLoad(ctx context.Context, source string) (string, error) {
	req := p.request
	req.Source = source
	body, err := json.Marshal(req)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode loader request")
	}
	var resp loaderResponse
	if err := p.call(ctx, http.MethodPost, p.endpoint+"/loader", body, &resp); err != nil {
		return "", err
	}
	if resp.Payload.LoadID == "" {
		return "", errors.New(errors.ErrorTypeData, "neptune loader returned no load id").WithDetail("source", source)
	}
	p.logger.Info("bulk load started", zap.String("load_id", resp.Payload.LoadID), zap.String("source", source))
	return resp.Payload.LoadID, nil
}

func (p *NeptunePublisher) waitLoad(ctx context.Context, loadID string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()
	for {
		var resp loaderResponse
		if err := p.call(ctx, http.MethodGet, p.endpoint+"/loader/"+loadID, nil, &resp); err != nil {
			return err
		}
		status := resp.Payload.OverallStatus
		switch status.Status {
		case loadCompleted:
			p.logger.Info("bulk load completed",
				zap.String("load_id", loadID),
				zap.Int64("records", status.TotalRecords),
				zap.Int64("seconds", status.TotalTimeSpent))
			return nil
		case loadNotStarted, loadInQueue, loadInProgress:
		default:
			return errors.Newf(errors.ErrorTypeData, "neptune load %s ended with %s", loadID, status.Status).
				WithDetail("parsing_errors", status.ParsingErrors).
				WithDetail("insert_errors", status.InsertErrors)
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "neptune load "+loadID+" did not finish")
		case <-ticker.C:
		}
	}
}

func (p *NeptunePublisher) call(ctx context.Context, method, url string, body []byte, out *loaderResponse) error {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to build loader request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.signer != nil {
		creds, err := p.credentials.Retrieve(ctx)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "failed to retrieve aws credentials")
		}
		sum := sha256.Sum256(body)
		if err := p.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), "neptune-db", p.region, p.now()); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to sign loader request")
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "neptune loader request failed")
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to read loader response")
	}
	if resp.StatusCode/100 != 2 {
		return errors.Newf(errors.ErrorTypeConnection, "neptune loader returned %d", resp.StatusCode).
			WithDetail("body", string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, errors.ErrorTypeParse, "failed to decode loader response")
	}
	return nil
}

// Close releases the loader API connections.
func (p *NeptunePublisher) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

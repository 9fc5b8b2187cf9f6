package util

import (
	"errors"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	gitSSH "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"
	"golang.org/x/xerrors"
)

type GitRepository interface {
	CreateTag(tagName string) error
	TagExists(tagName string) (bool, error)
	PushTags() error
	GetAllTagNames() ([]string, error)
}

func OpenGitRepo(repoPath string, gitAuth *gitSSH.PublicKeys) (GitRepository, error) {
	repository, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, xerrors.Errorf("取得 Git Repository 失敗: %w", err)
	}

	return NewGitRepo(repository, gitAuth), nil
}

func NewGitRepo(repository *git.Repository, gitAuth *gitSSH.PublicKeys) GitRepository {
	return &gitRepository{
		repo:    repository,
		gitAuth: gitAuth,
	}
}

func GetGitAuth(privateKeyFilePath, password string) (*gitSSH.PublicKeys, error) {
	publicKeys, err := gitSSH.NewPublicKeysFromFile("git", privateKeyFilePath, password)
	if err != nil {
		return nil, xerrors.Errorf("取得 Git Auth 失敗: %w", err)
	}

	publicKeys.HostKeyCallbackHelper = gitSSH.HostKeyCallbackHelper{
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	return publicKeys, nil
}

type gitRepository struct {
	repo    *git.Repository
	gitAuth *gitSSH.PublicKeys
}

func (gitRepo *gitRepository) CreateTag(tagName string) error {
	headRef, err := gitRepo.repo.Head()
	if err != nil {
		return xerrors.Errorf("建立 Git tag 失敗: %w", err)
	}

	refName := plumbing.NewTagReferenceName(tagName)
	ref := plumbing.NewHashReference(refName, headRef.Hash())

	err = gitRepo.repo.Storer.SetReference(ref)
	if err != nil {
		return xerrors.Errorf("建立 Git tag 失敗: %w", err)
	}

	return nil
}

func (gitRepo *gitRepository) TagExists(tagName string) (bool, error) {
	_, err := gitRepo.repo.Reference(plumbing.NewTagReferenceName(tagName), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, xerrors.Errorf("檢查 Git tag 是否存在失敗: %w", err)
	}

	return true, nil
}

func (gitRepo *gitRepository) PushTags() error {
	err := gitRepo.repo.Push(&git.PushOptions{
		RemoteName: "origin",
		RefSpecs: []config.RefSpec{
			"refs/tags/*:refs/tags/*",
		},
		Auth: gitRepo.gitAuth,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return xerrors.Errorf("推送 Git tag 失敗: %w", err)
	}

	return nil
}

func (gitRepo *gitRepository) GetAllTagNames() ([]string, error) {
	tags, err := gitRepo.repo.Tags()
	if err != nil {
		return nil, xerrors.Errorf("取得 Git tag 列表失敗: %w", err)
	}
	defer tags.Close()

	var tagsNames []string
	for {
		tagRef, err := tags.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, xerrors.Errorf("取得 Git tag 列表失敗: %w", err)
		}
		tagsNames = append(tagsNames, tagRef.Name().Short())
	}

	return tagsNames, nil
}

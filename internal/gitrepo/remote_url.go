package gitrepo

import (
	"fmt"
	"strings"
)

const (
	sshProtocolPrefixConstant           = "ssh://"
	httpsProtocolPrefixConstant         = "https://"
	httpProtocolPrefixConstant          = "http://"
	credentialsDelimiterConstant        = "@"
	scpPathDelimiterConstant            = ":"
	pathSeparatorConstant               = "/"
	gitSuffixConstant                   = ".git"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	requiredValueMessageConstant        = "value is required"
	repositoryIdentifierTemplate        = "%s/%s"
)

// RemoteProtocol enumerates supported git remote protocols.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolSSH   RemoteProtocol = RemoteProtocol("ssh")
	RemoteProtocolHTTPS RemoteProtocol = RemoteProtocol("https")
)

// RemoteURL represents a structured git remote URL.
type RemoteURL struct {
	Protocol   RemoteProtocol
	Host       string
	Owner      string
	Repository string
}

// FullName returns the owner/name identifier of the remote repository.
func (remote RemoteURL) FullName() string {
	return fmt.Sprintf(repositoryIdentifierTemplate, remote.Owner, remote.Repository)
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// ParseRemoteURL converts https, ssh:// and scp-style remotes into a structured representation.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	switch {
	case strings.HasPrefix(trimmedRemote, sshProtocolPrefixConstant):
		return parseHierarchicalRemote(remote, RemoteProtocolSSH, strings.TrimPrefix(trimmedRemote, sshProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpsProtocolPrefixConstant):
		return parseHierarchicalRemote(remote, RemoteProtocolHTTPS, strings.TrimPrefix(trimmedRemote, httpsProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpProtocolPrefixConstant):
		return parseHierarchicalRemote(remote, RemoteProtocolHTTPS, strings.TrimPrefix(trimmedRemote, httpProtocolPrefixConstant))
	case strings.Contains(trimmedRemote, scpPathDelimiterConstant):
		return parseScpRemote(remote, trimmedRemote)
	default:
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
}

func parseHierarchicalRemote(originalRemote string, protocol RemoteProtocol, remainder string) (RemoteURL, error) {
	hostAndPath := stripCredentials(remainder)
	slashIndex := strings.Index(hostAndPath, pathSeparatorConstant)
	if slashIndex <= 0 {
		return RemoteURL{}, RemoteURLParseError{Input: originalRemote, Message: invalidRemoteURLMessageConstant}
	}
	host := hostAndPath[:slashIndex]
	if portIndex := strings.Index(host, scpPathDelimiterConstant); portIndex != -1 {
		host = host[:portIndex]
	}
	return buildRemoteURL(originalRemote, protocol, host, hostAndPath[slashIndex+1:])
}

func parseScpRemote(originalRemote string, trimmedRemote string) (RemoteURL, error) {
	hostAndPath := stripCredentials(trimmedRemote)
	delimiterIndex := strings.Index(hostAndPath, scpPathDelimiterConstant)
	if delimiterIndex <= 0 {
		return RemoteURL{}, RemoteURLParseError{Input: originalRemote, Message: invalidRemoteURLMessageConstant}
	}
	return buildRemoteURL(originalRemote, RemoteProtocolSSH, hostAndPath[:delimiterIndex], hostAndPath[delimiterIndex+1:])
}

func stripCredentials(remainder string) string {
	slashIndex := strings.Index(remainder, pathSeparatorConstant)
	credentialsIndex := strings.Index(remainder, credentialsDelimiterConstant)
	if credentialsIndex == -1 || (slashIndex != -1 && credentialsIndex > slashIndex) {
		return remainder
	}
	return remainder[credentialsIndex+1:]
}

func buildRemoteURL(originalRemote string, protocol RemoteProtocol, host string, repositoryPath string) (RemoteURL, error) {
	pathSegments := strings.Split(strings.Trim(repositoryPath, pathSeparatorConstant), pathSeparatorConstant)
	if len(host) == 0 || len(pathSegments) != 2 || len(pathSegments[0]) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: originalRemote, Message: invalidRemoteURLMessageConstant}
	}
	repositoryName := strings.TrimSuffix(pathSegments[1], gitSuffixConstant)
	if len(repositoryName) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: originalRemote, Message: invalidRemoteURLMessageConstant}
	}
	return RemoteURL{Protocol: protocol, Host: host, Owner: pathSegments[0], Repository: repositoryName}, nil
}

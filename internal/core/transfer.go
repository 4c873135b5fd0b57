package core

import "os"

// transferAttempts is how often a transfer is retried when the copy's
// digest does not match the backup's persisted digest.
const transferAttempts = 3

// uploadVerified uploads localPath to remotePath and verifies the remote
// copy's digest, retrying with a fresh upload after removing the bad copy.
// After the last failed attempt the remote copy is removed and a
// ChecksumError returned, so a corrupt copy is never left behind.
func uploadVerified(sess RemoteSession, localPath, remotePath, digest, backupID string) error {
	var lastErr error
	for attempt := 0; attempt < transferAttempts; attempt++ {
		if err := sess.Upload(localPath, remotePath); err != nil {
			return err
		}

		remoteDigest, err := sess.HashOf(remotePath)
		if err != nil {
			sess.Remove(remotePath)
			return err
		}
		if remoteDigest == digest {
			return nil
		}

		sess.Remove(remotePath)
		lastErr = &ChecksumError{ID: backupID, Tier: "remote"}
	}
	return lastErr
}

// downloadVerified downloads remotePath to localPath and verifies the local
// copy's digest, retrying after removing the bad copy. After the last
// failed attempt the local copy is removed and a ChecksumError returned.
func downloadVerified(sess RemoteSession, remotePath, localPath, digest, backupID string) error {
	var lastErr error
	for attempt := 0; attempt < transferAttempts; attempt++ {
		if err := sess.Download(remotePath, localPath); err != nil {
			return err
		}

		localDigest, err := HashFile(localPath)
		if err != nil {
			os.Remove(localPath)
			return err
		}
		if localDigest == digest {
			return nil
		}

		os.Remove(localPath)
		lastErr = &ChecksumError{ID: backupID, Tier: "remote"}
	}
	return lastErr
}
